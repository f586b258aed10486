package models

import "gorm.io/gorm"

// Notification is an in-app message shown to a user (achievement earned,
// purchase confirmed, subscription changes).
type Notification struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	SentVia   string `gorm:"type:varchar(20);default:'APP'" json:"sent_via"`
	Read      bool   `gorm:"default:false" json:"read"`
	IsDeleted bool   `gorm:"default:false" json:"isDeleted"`
}
