package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment is the purchased-access record for a (user, course) pair.
// Created exactly once on first successful purchase; the composite unique
// index is what makes duplicate purchases a detectable no-op.
type Enrollment struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_course_enrollment"`
	CourseID    uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_user_course_enrollment"`
	PaymentID   uint      `json:"payment_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	IsDeleted   bool      `gorm:"default:false"`

	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
