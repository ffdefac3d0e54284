package models

import "time"

// RateLimitCounter is a fixed-window hit counter shared by all processes.
type RateLimitCounter struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:191;uniqueIndex;not null" json:"key"`
	Count     int64     `gorm:"not null" json:"count"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}
