package achievements

import (
	"sync"
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

	// A single connection keeps the in-memory database alive and
	// serializes concurrent writers at the pool.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Notification{},
		&courseModels.Course{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.CourseProgress{},
		&courseModels.Comment{},
	))

	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		Name:     "Test Learner",
		Email:    "learner@example.com",
		Password: "irrelevant",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestCheckAndAwardExactlyOnceUnderConcurrency(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	achievement := models.Achievement{
		Name:         "First Lesson",
		TriggerType:  models.TriggerLessonCompleted,
		TriggerValue: 1,
		Active:       true,
	}
	require.NoError(t, db.Create(&achievement).Error)

	now := time.Now()
	require.NoError(t, db.Create(&courseModels.LessonProgress{
		UserID:       user.ID,
		LessonID:     1,
		IsCompleted:  true,
		Progress:     100,
		CompletedAt:  &now,
		LastAccessed: now,
	}).Error)

	const workers = 20
	awardedCounts := make([]int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			awarded, err := CheckAndAward(db, user.ID, models.TriggerLessonCompleted, 0)
			if err == nil {
				awardedCounts[slot] = len(awarded)
			}
		}(i)
	}
	wg.Wait()

	totalAwarded := 0
	for _, count := range awardedCounts {
		totalAwarded += count
	}
	assert.Equal(t, 1, totalAwarded, "exactly one call should observe the award")

	var rows int64
	db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).
		Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestCheckAndAwardBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	require.NoError(t, db.Create(&models.Achievement{
		Name:         "Five Lessons",
		TriggerType:  models.TriggerLessonCompleted,
		TriggerValue: 5,
		Active:       true,
	}).Error)

	now := time.Now()
	require.NoError(t, db.Create(&courseModels.LessonProgress{
		UserID:      user.ID,
		LessonID:    1,
		IsCompleted: true,
		CompletedAt: &now,
	}).Error)

	awarded, err := CheckAndAward(db, user.ID, models.TriggerLessonCompleted, 0)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestCheckAndAwardInactiveDefinitionSkipped(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	require.NoError(t, db.Create(&models.Achievement{
		Name:         "Retired Badge",
		TriggerType:  models.TriggerLessonCompleted,
		TriggerValue: 1,
		Active:       false,
	}).Error)

	now := time.Now()
	require.NoError(t, db.Create(&courseModels.LessonProgress{
		UserID:      user.ID,
		LessonID:    1,
		IsCompleted: true,
		CompletedAt: &now,
	}).Error)

	awarded, err := CheckAndAward(db, user.ID, models.TriggerLessonCompleted, 0)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestCheckAndAwardFlipsAssignedRow(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	achievement := models.Achievement{
		Name:         "Commenter",
		TriggerType:  models.TriggerComment,
		TriggerValue: 1,
		Active:       true,
	}
	require.NoError(t, db.Create(&achievement).Error)

	// A pre-assigned row that was never earned
	require.NoError(t, db.Create(&models.UserAchievement{
		UserID:        user.ID,
		AchievementID: achievement.ID,
		Earned:        false,
	}).Error)

	require.NoError(t, db.Create(&courseModels.Comment{
		UserID:   user.ID,
		LessonID: 1,
		Content:  "Great lesson!",
	}).Error)

	awarded, err := CheckAndAward(db, user.ID, models.TriggerComment, 0)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "Commenter", awarded[0].Name)

	var row models.UserAchievement
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", user.ID, achievement.ID).First(&row).Error)
	assert.True(t, row.Earned)
	assert.NotNil(t, row.EarnedAt)

	// Second pass is a silent no-op
	awarded, err = CheckAndAward(db, user.ID, models.TriggerComment, 0)
	require.NoError(t, err)
	assert.Empty(t, awarded)
}

func TestCheckAndAwardLoginStreakMetric(t *testing.T) {
	db := newTestDB(t)

	user := models.User{
		Name:        "Streaky",
		Email:       "streak@example.com",
		Password:    "irrelevant",
		LoginStreak: 7,
	}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, db.Create(&models.Achievement{
		Name:         "Week Streak",
		TriggerType:  models.TriggerLoginStreak,
		TriggerValue: 7,
		Active:       true,
	}).Error)
	require.NoError(t, db.Create(&models.Achievement{
		Name:         "Month Streak",
		TriggerType:  models.TriggerLoginStreak,
		TriggerValue: 30,
		Active:       true,
	}).Error)

	awarded, err := CheckAndAward(db, user.ID, models.TriggerLoginStreak, 0)
	require.NoError(t, err)
	require.Len(t, awarded, 1)
	assert.Equal(t, "Week Streak", awarded[0].Name)
}

func TestAwardCreatesNotification(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)

	require.NoError(t, db.Create(&models.Achievement{
		Name:         "First Enrollment",
		TriggerType:  models.TriggerEnrollment,
		TriggerValue: 1,
		Active:       true,
	}).Error)

	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID:      user.ID,
		CourseID:    1,
		PurchasedAt: time.Now(),
	}).Error)

	awarded, err := CheckAndAward(db, user.ID, models.TriggerEnrollment, 0)
	require.NoError(t, err)
	require.Len(t, awarded, 1)

	var notifications int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&notifications)
	assert.EqualValues(t, 1, notifications)
}
