package models

import (
	"time"
)

const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	Email            string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash     string     `json:"-" gorm:"size:255;not null"`
	FullName         string     `json:"full_name" gorm:"size:255;not null"`
	Phone            string     `json:"phone" gorm:"size:20"`
	Role             string     `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	Bio              string     `json:"bio" gorm:"type:text"`
	Location         string     `json:"location" gorm:"size:255"`
	Avatar           string     `json:"avatar" gorm:"size:500"`
	IsActive         bool       `json:"is_active" gorm:"default:true"`
	ProfileCompleted bool       `json:"profile_completed" gorm:"default:false"`
	IsVerified       bool       `json:"is_verified" gorm:"default:false"`
	VerificationDate *time.Time `json:"verification_date"`
	IsBlocked        bool       `json:"is_blocked" gorm:"default:false"`
	BlockedReason    *string    `json:"blocked_reason"`
	BlockedDate      *time.Time `json:"blocked_date"`
	Rating           float64    `json:"rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews     int        `json:"total_reviews" gorm:"default:0"`

	// Denormalized last-known position, used for map pins. Distinct
	// from the time-bounded rows in user_locations.
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	LastLocationUpdate *time.Time `json:"last_location_update"`

	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsValidRole reports whether role is one of the three the system
// knows about.
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleProvider, RoleAdmin:
		return true
	default:
		return false
	}
}
