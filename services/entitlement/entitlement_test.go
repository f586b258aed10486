package entitlement

import (
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.SubscriptionPlan{},
		&courseModels.Course{},
		&courseModels.Enrollment{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()

	user := models.User{
		Name:     "Access Tester",
		Email:    role + "@example.com",
		Password: "irrelevant",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestHasAccessAdminAlwaysGranted(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, models.RoleAdmin)

	granted, err := HasAccess(db, admin.ID, 42)
	require.NoError(t, err)
	assert.True(t, granted, "admins bypass subscription and enrollment checks")
}

func TestHasAccessActiveSubscriptionCoversAllCourses(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, models.RoleUser)

	endTime := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: "I-ACTIVE1",
		Status:               models.SubscriptionActive,
		StartTime:            time.Now().Add(-24 * time.Hour),
		EndTime:              &endTime,
	}).Error)

	for _, courseID := range []uint{1, 7, 99} {
		granted, err := HasAccess(db, user.ID, courseID)
		require.NoError(t, err)
		assert.True(t, granted)
	}
}

func TestHasAccessExpiredSubscriptionDenied(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, models.RoleUser)

	endTime := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: "I-LAPSED1",
		Status:               models.SubscriptionActive,
		StartTime:            time.Now().Add(-48 * time.Hour),
		EndTime:              &endTime,
	}).Error)

	granted, err := HasAccess(db, user.ID, 1)
	require.NoError(t, err)
	assert.False(t, granted, "an ACTIVE row past its end time must not grant access")
}

func TestHasAccessCancelledSubscriptionDenied(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, models.RoleUser)

	endTime := time.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: "I-CANCEL1",
		Status:               models.SubscriptionCancelled,
		StartTime:            time.Now().Add(-24 * time.Hour),
		EndTime:              &endTime,
	}).Error)

	granted, err := HasAccess(db, user.ID, 1)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasAccessEnrollmentIsPerCourse(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, models.RoleUser)

	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID:      user.ID,
		CourseID:    5,
		PurchasedAt: time.Now(),
	}).Error)

	granted, err := HasAccess(db, user.ID, 5)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = HasAccess(db, user.ID, 6)
	require.NoError(t, err)
	assert.False(t, granted, "a purchase only unlocks its own course")
}

func TestHasAccessUnknownUser(t *testing.T) {
	db := newTestDB(t)

	granted, err := HasAccess(db, 9999, 1)
	require.NoError(t, err)
	assert.False(t, granted)
}

func TestHasActiveSubscriptionOpenEnded(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, models.RoleUser)

	// No end time set yet: treated as active until the provider says
	// otherwise.
	require.NoError(t, db.Create(&models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: "I-OPEN1",
		Status:               models.SubscriptionActive,
		StartTime:            time.Now(),
	}).Error)

	active, err := HasActiveSubscription(db, user.ID)
	require.NoError(t, err)
	assert.True(t, active)
}
