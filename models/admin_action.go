package models

import (
	"time"
)

const (
	ActionBlockUser          = "block_user"
	ActionUnblockUser        = "unblock_user"
	ActionVerifyUser         = "verify_user"
	ActionUnverifyUser       = "unverify_user"
	ActionApproveCertificate = "approve_certificate"
	ActionRejectCertificate  = "reject_certificate"
	ActionDeleteService      = "delete_service"
)

// AdminAction is an append-only audit row. Nothing in the codebase
// updates or deletes these.
type AdminAction struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	AdminID             uint      `json:"admin_id" gorm:"not null;index"`
	Admin               User      `json:"-" gorm:"foreignKey:AdminID"`
	ActionType          string    `json:"action_type" gorm:"size:50;not null"`
	TargetUserID        *uint     `json:"target_user_id"`
	TargetServiceID     *uint     `json:"target_service_id"`
	TargetCertificateID *uint     `json:"target_certificate_id"`
	Notes               string    `json:"notes" gorm:"type:text"`
	CreatedAt           time.Time `json:"created_at"`
}

func (AdminAction) TableName() string {
	return "admin_actions"
}
