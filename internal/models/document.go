package models

import (
	"time"

	"gorm.io/gorm"
)

// Document owner types.
const (
	OwnerQuote   = "quote"
	OwnerInvoice = "invoice"
)

// Document is a rendered file persisted under the media root.
// One document per owner and kind; re-rendering replaces it.
type Document struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OwnerType string `gorm:"size:50;not null;uniqueIndex:idx_document_owner" json:"owner_type"`
	OwnerID   uint   `gorm:"not null;uniqueIndex:idx_document_owner" json:"owner_id"`
	Kind      string `gorm:"size:50;not null;uniqueIndex:idx_document_owner" json:"kind"`

	Name     string `gorm:"size:255;not null" json:"name"`
	Path     string `gorm:"size:500;not null" json:"path"`
	MimeType string `gorm:"size:100" json:"mime_type"`
	Size     int64  `json:"size"`
	Pages    int    `json:"pages"`
}
