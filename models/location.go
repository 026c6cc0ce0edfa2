package models

import (
	"time"
)

// UserLocation is a time-bounded live-location share. A row scoped
// with SharedWithUserID is visible only to that user; a nil scope is
// visible to anyone the sharer talks to. Expired or deactivated rows
// simply stop being returned, they are not deleted.
type UserLocation struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	UserID           uint       `json:"user_id" gorm:"not null;index"`
	User             User       `json:"-" gorm:"foreignKey:UserID"`
	Latitude         float64    `json:"latitude" gorm:"not null"`
	Longitude        float64    `json:"longitude" gorm:"not null"`
	Address          string     `json:"address" gorm:"size:255"`
	Accuracy         *float64   `json:"accuracy"`
	SharedWithUserID *uint      `json:"shared_with_user_id"`
	ExpiresAt        *time.Time `json:"expires_at"`
	IsActive         bool       `json:"is_active" gorm:"default:true"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (UserLocation) TableName() string {
	return "user_locations"
}
