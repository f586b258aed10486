package progress

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
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Notification{},
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.Lesson{},
		&courseModels.LessonProgress{},
		&courseModels.CourseProgress{},
	))

	return db
}

// seedCourse creates a published course with one module and the given
// number of published lessons. Returns the user and lesson ids.
func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) (models.User, courseModels.Course, []uint) {
	t.Helper()

	user := models.User{Name: "Learner", Email: "learner@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	course := courseModels.Course{Title: "Go Basics", IsPublished: true, Status: courseModels.CoursePublished}
	require.NoError(t, db.Create(&course).Error)

	module := courseModels.Module{CourseID: course.ID, Title: "Getting Started"}
	require.NoError(t, db.Create(&module).Error)

	lessonIDs := make([]uint, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lesson := courseModels.Lesson{
			ModuleID:    module.ID,
			CourseID:    course.ID,
			Title:       "Lesson",
			OrderIndex:  i,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&lesson).Error)
		lessonIDs = append(lessonIDs, lesson.ID)
	}

	return user, course, lessonIDs
}

func TestRecordLessonProgressRecomputesAggregate(t *testing.T) {
	db := newTestDB(t)
	user, course, lessons := seedCourse(t, db, 4)

	for i := 0; i < 3; i++ {
		snapshot, err := RecordLessonProgress(db, user.ID, lessons[i], true, 100)
		require.NoError(t, err)
		assert.Equal(t, 4, snapshot.TotalLessons)
		assert.Equal(t, i+1, snapshot.CompletedLessons)
	}

	var saved courseModels.CourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&saved).Error)
	assert.InDelta(t, 75.0, saved.Progress, 0.001)
	assert.Nil(t, saved.CompletedAt)

	snapshot, err := RecordLessonProgress(db, user.ID, lessons[3], true, 100)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, snapshot.Progress, 0.001)
	assert.NotNil(t, snapshot.CompletedAt)
}

func TestRecordLessonProgressIdempotent(t *testing.T) {
	db := newTestDB(t)
	user, course, lessons := seedCourse(t, db, 2)

	first, err := RecordLessonProgress(db, user.ID, lessons[0], true, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CompletedLessons)

	var row courseModels.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, lessons[0]).First(&row).Error)
	require.NotNil(t, row.CompletedAt)
	originalCompletedAt := *row.CompletedAt

	time.Sleep(10 * time.Millisecond)

	second, err := RecordLessonProgress(db, user.ID, lessons[0], true, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, second.CompletedLessons, "re-completing must not double count")

	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, lessons[0]).First(&row).Error)
	require.NotNil(t, row.CompletedAt)
	assert.WithinDuration(t, originalCompletedAt, *row.CompletedAt, time.Millisecond, "first completion timestamp must survive")

	var rows int64
	db.Model(&courseModels.LessonProgress{}).Where("user_id = ?", user.ID).Count(&rows)
	assert.EqualValues(t, 1, rows)

	var aggregates int64
	db.Model(&courseModels.CourseProgress{}).Where("user_id = ? AND course_id = ?", user.ID, course.ID).Count(&aggregates)
	assert.EqualValues(t, 1, aggregates)
}

func TestRecordLessonProgressClampsFraction(t *testing.T) {
	db := newTestDB(t)
	user, _, lessons := seedCourse(t, db, 1)

	_, err := RecordLessonProgress(db, user.ID, lessons[0], false, -25)
	require.NoError(t, err)

	var row courseModels.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, lessons[0]).First(&row).Error)
	assert.Zero(t, row.Progress)

	_, err = RecordLessonProgress(db, user.ID, lessons[0], false, 180)
	require.NoError(t, err)

	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", user.ID, lessons[0]).First(&row).Error)
	assert.InDelta(t, 100.0, row.Progress, 0.001)
	assert.False(t, row.IsCompleted, "watching to the end is not completing")
}

func TestRecordLessonProgressUnknownLesson(t *testing.T) {
	db := newTestDB(t)
	user, _, _ := seedCourse(t, db, 1)

	_, err := RecordLessonProgress(db, user.ID, 9999, true, 100)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestRecordLessonProgressUnpublishedLesson(t *testing.T) {
	db := newTestDB(t)
	user, course, _ := seedCourse(t, db, 1)

	hidden := courseModels.Lesson{
		ModuleID:    1,
		CourseID:    course.ID,
		Title:       "Draft Lesson",
		IsPublished: false,
	}
	require.NoError(t, db.Create(&hidden).Error)

	_, err := RecordLessonProgress(db, user.ID, hidden.ID, true, 100)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestEvaluateTriggersAwardsCourseCompletion(t *testing.T) {
	db := newTestDB(t)
	user, _, lessons := seedCourse(t, db, 2)

	require.NoError(t, db.Create(&models.Achievement{
		Name:         "Course Finisher",
		TriggerType:  models.TriggerCourseCompleted,
		TriggerValue: 1,
		Active:       true,
	}).Error)

	var snapshot *courseModels.CourseProgress
	var err error
	for _, lessonID := range lessons {
		snapshot, err = RecordLessonProgress(db, user.ID, lessonID, true, 100)
		require.NoError(t, err)
	}
	require.InDelta(t, 100.0, snapshot.Progress, 0.001)

	// Run the post-commit evaluation synchronously
	EvaluateTriggers(db, user.ID, true, snapshot.Progress)

	var row models.UserAchievement
	require.NoError(t, db.Where("user_id = ?", user.ID).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("achievements.name = ?", "Course Finisher").
		First(&row).Error)
	assert.True(t, row.Earned)
}
