package models

import (
	"time"
)

// Conversation is the chat context between exactly one customer and
// one provider, optionally scoped to a service. At most one
// conversation exists per (customer, provider, service) key; the
// uniqueness is enforced by a storage-level index so concurrent
// first-contact cannot create duplicates.
type Conversation struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CustomerID   uint      `json:"customer_id" gorm:"not null;index"`
	Customer     User      `json:"-" gorm:"foreignKey:CustomerID"`
	ProviderID   uint      `json:"provider_id" gorm:"not null;index"`
	Provider     User      `json:"-" gorm:"foreignKey:ProviderID"`
	ServiceID    *uint     `json:"service_id"`
	BookingID    *uint     `json:"booking_id"`
	RoomName     string    `json:"room_name" gorm:"size:255"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Participant reports whether userID is one of the two parties.
func (c *Conversation) Participant(userID uint) bool {
	return c.CustomerID == userID || c.ProviderID == userID
}

// OtherParty returns the counterpart of userID in the conversation.
func (c *Conversation) OtherParty(userID uint) uint {
	if c.CustomerID == userID {
		return c.ProviderID
	}
	return c.CustomerID
}

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageLocation MessageType = "location"
	MessageImage    MessageType = "image"
	MessageFile     MessageType = "file"
)

// Message is immutable once created except for the is_read flip.
type Message struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	ConversationID  uint        `json:"conversation_id" gorm:"not null;index"`
	SenderID        uint        `json:"sender_id" gorm:"not null"`
	Sender          User        `json:"-" gorm:"foreignKey:SenderID"`
	ReceiverID      uint        `json:"receiver_id" gorm:"not null;index"`
	MessageType     MessageType `json:"message_type" gorm:"type:varchar(20);default:'text'"`
	Content         string      `json:"content" gorm:"type:text"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
	LocationAddress string      `json:"location_address" gorm:"size:255"`
	AttachmentURL   string      `json:"attachment_url" gorm:"size:255"`
	IsRead          bool        `json:"is_read" gorm:"default:false"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
