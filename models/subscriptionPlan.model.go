package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionPlan is an admin-managed billing plan, mirrored to a PayPal
// product + plan pair on creation.
type SubscriptionPlan struct {
	gorm.Model
	Name           string         `gorm:"not null" json:"name"`
	Description    string         `json:"description"`
	Price          float64        `gorm:"not null;default:0" json:"price"`
	DurationMonths int            `gorm:"not null;default:1" json:"durationMonths"`
	Features       datatypes.JSON `json:"features"`
	PaypalPlanID   string         `gorm:"type:varchar(64)" json:"paypalPlanId"`
	Active         bool           `gorm:"default:true" json:"active"`
	IsDeleted      bool           `gorm:"default:false" json:"isDeleted"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}
