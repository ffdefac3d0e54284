package models

import "time"

// NotificationChannelEmail is the only channel the outbox produces today.
const NotificationChannelEmail = "email"

// Notification is an outbox row for a message to deliver out of band.
// SentAt stays nil until a transport picks the row up.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Channel   string `gorm:"size:20;not null;default:'email'" json:"channel"`
	Recipient string `gorm:"size:255;not null;index" json:"recipient"`
	Subject   string `gorm:"size:255;not null" json:"subject"`
	Body      string `gorm:"type:text" json:"body"`

	EntityType string `gorm:"size:50;index:idx_notification_entity" json:"entity_type,omitempty"`
	EntityID   uint   `gorm:"index:idx_notification_entity" json:"entity_id,omitempty"`

	SentAt *time.Time `gorm:"index" json:"sent_at,omitempty"`
}
