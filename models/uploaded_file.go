package models

import (
	"time"
)

// UploadPurposes is the allow-list for the purpose tag on uploads.
var UploadPurposes = []string{
	"profile_image",
	"portfolio",
	"certificate",
	"service_image",
	"document",
}

// IsValidUploadPurpose reports whether p is one of UploadPurposes.
func IsValidUploadPurpose(p string) bool {
	for _, allowed := range UploadPurposes {
		if p == allowed {
			return true
		}
	}
	return false
}

// UploadedFile records metadata for a file stored on local disk under
// the uploads root. FilePath is relative to that root and the stored
// name is always generated, never the client's.
type UploadedFile struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	User        User      `json:"-" gorm:"foreignKey:UserID"`
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	FilePath    string    `json:"file_path" gorm:"size:255;not null"`
	FileType    string    `json:"file_type" gorm:"size:100;not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Purpose     string    `json:"purpose" gorm:"size:50;not null"`
	ReferenceID *uint     `json:"reference_id"`
	IsPublic    bool      `json:"is_public" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
