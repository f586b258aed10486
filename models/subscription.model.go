package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionStatus enum values
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionPending   = "PENDING"
	SubscriptionCancelled = "CANCELLED"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionSuspended = "SUSPENDED"
)

// Subscription tracks a user's platform subscription, driven by PayPal
// billing lifecycle events. At most one ACTIVE row exists per user.
type Subscription struct {
	gorm.Model
	UserID               uint       `gorm:"not null;index" json:"userId"`
	PaypalSubscriptionID string     `gorm:"type:varchar(64);uniqueIndex" json:"paypalSubscriptionId"`
	PlanID               uint       `gorm:"index" json:"planId"`
	Status               string     `gorm:"not null;type:varchar(20);default:'PENDING'" json:"status"`
	StartTime            time.Time  `json:"startTime"`
	EndTime              *time.Time `json:"endTime"`
	ReminderSent         bool       `gorm:"default:false" json:"reminderSent"` // Track if expiry reminder was sent
	IsDeleted            bool       `gorm:"default:false" json:"isDeleted"`

	Plan SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
