// Package models holds the gorm entities of the agency back office:
// clients, leads, the service catalogue, quotes with their OTP validations,
// invoices and the supporting document/notification/rate-limit tables.
package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Client{},
		&Service{},
		&QuoteRequest{},
		&Quote{},
		&QuoteItem{},
		&QuoteValidation{},
		&Invoice{},
		&InvoiceItem{},
		&Document{},
		&Notification{},
		&RateLimitCounter{},
	}
}

// NewPublicToken returns an unguessable URL-safe token (256 bits).
func NewPublicToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// endOfDay returns the last instant of t's calendar day, in t's location.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
