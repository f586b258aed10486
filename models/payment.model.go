package models

import "gorm.io/gorm"

// PaymentStatus enum values
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
)

// Payment records a course purchase attempt. TransactionID holds the
// PayPal order id so webhook captures can be correlated back to it.
type Payment struct {
	gorm.Model
	UserID        uint    `gorm:"not null;index" json:"user_id"`
	CourseID      uint    `gorm:"not null;index" json:"course_id"`
	Amount        float64 `gorm:"not null;default:0" json:"amount"`
	Method        string  `gorm:"type:varchar(20);default:'PAYPAL'" json:"method"`
	TransactionID string  `gorm:"type:varchar(64);index" json:"transaction_id"`
	Status        string  `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	IsDeleted     bool    `gorm:"default:false" json:"isDeleted"`
}
