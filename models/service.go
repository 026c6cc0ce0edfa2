package models

import (
	"time"
)

// Availability maps lowercase weekday names ("monday" ... "sunday")
// to whether the provider takes bookings that day.
type Availability map[string]bool

// DefaultAvailability is applied when a provider creates a service
// without an explicit schedule: open Monday through Saturday.
func DefaultAvailability() Availability {
	return Availability{
		"monday":    true,
		"tuesday":   true,
		"wednesday": true,
		"thursday":  true,
		"friday":    true,
		"saturday":  true,
		"sunday":    false,
	}
}

// WorkingHours is the daily booking window, both bounds inclusive,
// as zero-padded "HH:MM" strings so they compare lexically.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func DefaultWorkingHours() WorkingHours {
	return WorkingHours{Start: "09:00", End: "18:00"}
}

// Service is a bookable listing owned by a provider.
type Service struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	ProviderID   uint         `json:"provider_id" gorm:"not null;index"`
	Provider     User         `json:"-" gorm:"foreignKey:ProviderID"`
	Title        string       `json:"title" gorm:"size:255;not null"`
	Description  string       `json:"description" gorm:"type:text"`
	Category     string       `json:"category" gorm:"size:100;not null;index"`
	Price        float64      `json:"price" gorm:"type:decimal(10,2);not null"`
	Location     string       `json:"location" gorm:"size:255"`
	Availability Availability `json:"availability" gorm:"serializer:json"`
	WorkingHours WorkingHours `json:"working_hours" gorm:"serializer:json"`
	IsActive     bool         `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

// OpenOn reports whether the availability map allows bookings on the
// given weekday. A day missing from the map counts as open, matching
// how partial schedules behave.
func (s *Service) OpenOn(weekday time.Weekday) bool {
	if s.Availability == nil {
		return true
	}
	open, ok := s.Availability[weekdayName(weekday)]
	if !ok {
		return true
	}
	return open
}

// WithinHours reports whether an "HH:MM" time falls inside the
// working-hours window, bounds inclusive.
func (s *Service) WithinHours(hhmm string) bool {
	if s.WorkingHours.Start == "" || s.WorkingHours.End == "" {
		return true
	}
	return hhmm >= s.WorkingHours.Start && hhmm <= s.WorkingHours.End
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
