package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuoteRequestStatus tracks whether a lead has been turned into a quote.
type QuoteRequestStatus string

const (
	QuoteRequestStatusNew       QuoteRequestStatus = "new"
	QuoteRequestStatusProcessed QuoteRequestStatus = "processed"
)

// QuoteRequest is an inbound lead submitted from the public site.
type QuoteRequest struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255;not null;index" json:"email"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Company string `gorm:"size:255" json:"company,omitempty"`
	Message string `gorm:"type:text" json:"message"`

	Photos datatypes.JSONSlice[string] `json:"photos,omitempty"`

	ServiceID *uint    `gorm:"index" json:"service_id,omitempty"`
	Service   *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	Status      QuoteRequestStatus `gorm:"size:20;not null;default:'new';index" json:"status"`
	ProcessedAt *time.Time         `json:"processed_at,omitempty"`
	// QuoteID points at the quote created from this lead, once processed.
	QuoteID *uint `gorm:"index" json:"quote_id,omitempty"`
}
