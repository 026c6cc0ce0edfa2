package models

import (
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// allowedTransitions is the full booking state machine. completed and
// cancelled are terminal.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted, BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// IsValidBookingStatus reports whether s names a known status.
func IsValidBookingStatus(s BookingStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Booking reserves a (service, date, time) slot for a customer.
// total_amount is a snapshot of the service price at creation and is
// never recalculated.
type Booking struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	CustomerID  uint          `json:"customer_id" gorm:"not null;index"`
	Customer    User          `json:"-" gorm:"foreignKey:CustomerID"`
	ServiceID   uint          `json:"service_id" gorm:"not null;index"`
	Service     Service       `json:"-" gorm:"foreignKey:ServiceID"`
	ProviderID  uint          `json:"provider_id" gorm:"not null;index"`
	BookingDate string        `json:"booking_date" gorm:"size:10;not null"`
	BookingTime string        `json:"booking_time" gorm:"size:5;not null"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Notes       string        `json:"notes" gorm:"type:text"`
	TotalAmount float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

// CanTransitionTo reports whether the state machine allows moving to
// next from the booking's current status.
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range allowedTransitions[b.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}
