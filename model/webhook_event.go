package model

import "time"

// WebhookEvent records a provider delivery once it has been applied.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:255"`
	Provider    string    `gorm:"size:20;not null"`
	EventType   string    `gorm:"size:100;not null"`
	ProcessedAt time.Time `gorm:"not null"`
}
