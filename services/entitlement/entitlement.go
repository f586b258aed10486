package entitlement

import (
	"errors"
	"lms/models"
	courseModels "lms/models/course"
	"time"

	"gorm.io/gorm"
)

// HasAccess reports whether the user may view the paid content of a course.
//
// Rules are evaluated in strict precedence, cheapest first, short-circuiting
// on the first match:
//  1. ADMIN role
//  2. an ACTIVE subscription whose end time is unset or in the future
//  3. an enrollment (purchased access) record for this course
//
// The ordering is deliberate: an admin must never be shadowed by a missing
// subscription row, and a lapsed subscription must not fall through to
// per-course purchase checks for courses never individually bought.
// Read-only; no side effects.
func HasAccess(db *gorm.DB, userID uint, courseID uint) (bool, error) {
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if user.Role == models.RoleAdmin {
		return true, nil
	}

	active, err := HasActiveSubscription(db, userID)
	if err != nil {
		return false, err
	}
	if active {
		return true, nil
	}

	var enrollment courseModels.Enrollment
	err = db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// HasActiveSubscription reports whether the user holds an ACTIVE
// subscription whose end time is unset or still in the future.
func HasActiveSubscription(db *gorm.DB, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND is_deleted = ?", userID, models.SubscriptionActive, false).
		Where("end_time IS NULL OR end_time > ?", time.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
