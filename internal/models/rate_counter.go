package models

import "time"

// RateCounter is a fixed-window request counter shared by every server
// instance that points at the same database.
type RateCounter struct {
	Key       string    `gorm:"column:counter_key;primaryKey;type:varchar(255)"`
	Count     int64     `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}
