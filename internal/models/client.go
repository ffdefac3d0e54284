package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client is a customer of the agency. Quotes and invoices reference it.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:255;index" json:"email,omitempty"`
	Phone    string `gorm:"size:50" json:"phone,omitempty"`
	Company  string `gorm:"size:255" json:"company,omitempty"`

	// Address
	Address    string `gorm:"size:500" json:"address,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
}

// DisplayName returns the company when set, otherwise the person's name.
func (c *Client) DisplayName() string {
	if c == nil {
		return ""
	}
	if strings.TrimSpace(c.Company) != "" {
		return c.Company
	}
	return c.FullName
}

// FullAddress returns the formatted full address.
func (c *Client) FullAddress() string {
	addr := c.Address
	if c.PostalCode != "" || c.City != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += c.PostalCode
		if c.PostalCode != "" && c.City != "" {
			addr += " "
		}
		addr += c.City
	}
	if c.Country != "" {
		if addr != "" {
			addr += "\n"
		}
		addr += c.Country
	}
	return addr
}
