package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent status values
const (
	WebhookProcessed = "PROCESSED"
	WebhookRejected  = "REJECTED"
)

// WebhookEvent is an audit record of every inbound payment-provider event.
// EventID is the provider's event id; the unique index makes redelivered
// events detectable so handlers stay idempotent.
type WebhookEvent struct {
	gorm.Model
	EventID   string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_id"`
	EventType string         `gorm:"type:varchar(64);index" json:"event_type"`
	Payload   datatypes.JSON `json:"payload"`
	Status    string         `gorm:"type:varchar(20)" json:"status"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
