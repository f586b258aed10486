package models

import (
	"time"

	"gorm.io/gorm"
)

// Role enum values
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type User struct {
	gorm.Model
	ProfileImage        string     `gorm:"default:''"`
	Name                string     `gorm:"default:''"`
	Email               string     `gorm:"unique;not null"`
	Role                string     `gorm:"default:'USER'"` // USER, ADMIN
	Password            string     `gorm:"not null" json:"-"`
	Phone               string     `gorm:"default:''"`
	Location            string     `gorm:"default:''"`
	Bio                 string     `gorm:"default:''"`
	IsEmailVerified     bool       `gorm:"default:false"`
	VerificationToken   string     `gorm:"index" json:"-"`
	TokenExpiry         *time.Time `json:"-"`
	SubscriptionEndsAt  *time.Time `json:"subscription_ends_at"` // Mirror of the latest active subscription end
	LastLogin           *time.Time `json:"last_login"`
	LoginStreak         int        `gorm:"default:0" json:"login_streak"` // Consecutive-day login counter
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LastFailedLogin     *time.Time `json:"-"`
	IsDeleted           bool       `gorm:"default:false"`
}
