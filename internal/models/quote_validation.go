package models

import (
	"time"

	"gorm.io/gorm"
)

// QuoteValidation is one OTP challenge issued to the client of a quote.
// Superseded challenges are soft deleted so their history is kept.
type QuoteValidation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	QuoteID uint   `gorm:"index;not null" json:"quote_id"`
	Quote   *Quote `gorm:"foreignKey:QuoteID" json:"-"`

	Token       string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	Code        string     `gorm:"size:6;not null" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
}

func (v *QuoteValidation) IsConfirmed() bool {
	return v.ConfirmedAt != nil
}

// IsExpired reports whether now is past the expiry instant.
func (v *QuoteValidation) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
