package models

import (
	"time"
)

const (
	NotificationMessage     = "message"
	NotificationBooking     = "booking"
	NotificationCertificate = "certificate"
	NotificationAdmin       = "admin"
)

// Notification is a fire-and-forget side effect of message, booking,
// certificate and admin events. RelatedID points at the triggering
// row (message id, booking id, certificate id).
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Type      string    `json:"type" gorm:"size:50;not null"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	RelatedID *uint     `json:"related_id"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
