package progress

import (
	"errors"
	"fmt"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/achievements"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLessonNotFound is returned when the lesson does not exist or is not
// published.
var ErrLessonNotFound = errors.New("lesson not found")

// RecordLessonProgress upserts the user's progress on a lesson and
// recomputes the owning course's aggregate completion inside one
// transaction.
//
// The course aggregate is always rebuilt from the current lesson_progress
// rows rather than patched, so repeated or out-of-order updates cannot make
// the counts drift. The lesson's CompletedAt is written only on the first
// transition to completed; the course's CompletedAt is latched the first
// time the percentage reaches 100 and never cleared here.
//
// After the transaction commits, achievement triggers are evaluated on a
// separate goroutine. A failure there is logged and swallowed: gamification
// must never fail a progress update that already committed.
func RecordLessonProgress(db *gorm.DB, userID uint, lessonID uint, isCompleted bool, fraction float64) (*courseModels.CourseProgress, error) {
	var lesson courseModels.Lesson
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, err
	}

	if fraction < 0 {
		fraction = 0
	} else if fraction > 100 {
		fraction = 100
	}

	now := time.Now()
	var snapshot courseModels.CourseProgress

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := upsertLessonProgress(tx, userID, lessonID, isCompleted, fraction, now); err != nil {
			return fmt.Errorf("upsert lesson progress: %w", err)
		}

		aggregate, err := recomputeCourseProgress(tx, userID, lesson.CourseID, now)
		if err != nil {
			return fmt.Errorf("recompute course progress: %w", err)
		}

		snapshot = *aggregate
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit, best-effort. Structurally incapable of rolling back the
	// progress write above.
	go EvaluateTriggers(db, userID, isCompleted, snapshot.Progress)

	return &snapshot, nil
}

// EvaluateTriggers runs the achievement checks that follow a lesson
// progress update: lesson completions always, course completions only when
// the course just reached 100%. Exported so callers and tests can run it
// synchronously.
func EvaluateTriggers(db *gorm.DB, userID uint, lessonCompleted bool, coursePercentage float64) {
	if lessonCompleted {
		if _, err := achievements.CheckAndAward(db, userID, models.TriggerLessonCompleted, 0); err != nil {
			log.Printf("[PROGRESS] Lesson achievement check failed for user %d: %v", userID, err)
		}
	}

	if coursePercentage >= 100 {
		if _, err := achievements.CheckAndAward(db, userID, models.TriggerCourseCompleted, 0); err != nil {
			log.Printf("[PROGRESS] Course achievement check failed for user %d: %v", userID, err)
		}
	}
}

// upsertLessonProgress writes the per-(user, lesson) row through the
// composite unique index so concurrent updates for the same pair serialize
// in the store, not in this process.
func upsertLessonProgress(tx *gorm.DB, userID uint, lessonID uint, isCompleted bool, fraction float64, now time.Time) error {
	assignments := map[string]interface{}{
		"is_completed":  isCompleted,
		"progress":      fraction,
		"last_accessed": now,
		"updated_at":    now,
	}
	if isCompleted {
		// First completion wins; re-completing keeps the original timestamp.
		assignments["completed_at"] = gorm.Expr("COALESCE(lesson_progress.completed_at, ?)", now)
	}

	row := courseModels.LessonProgress{
		UserID:       userID,
		LessonID:     lessonID,
		IsCompleted:  isCompleted,
		Progress:     fraction,
		LastAccessed: now,
	}
	if isCompleted {
		row.CompletedAt = &now
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
}

// recomputeCourseProgress rebuilds the (user, course) aggregate from the
// published lessons of the course and the user's completed rows.
func recomputeCourseProgress(tx *gorm.DB, userID uint, courseID uint, now time.Time) (*courseModels.CourseProgress, error) {
	var totalLessons int64
	if err := tx.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Count(&totalLessons).Error; err != nil {
		return nil, err
	}

	lessonIDs := tx.Model(&courseModels.Lesson{}).Select("id").
		Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true)

	var completedLessons int64
	if err := tx.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND is_completed = ? AND lesson_id IN (?)", userID, true, lessonIDs).
		Count(&completedLessons).Error; err != nil {
		return nil, err
	}

	percentage := 0.0
	if totalLessons > 0 {
		percentage = float64(completedLessons) / float64(totalLessons) * 100
	}

	assignments := map[string]interface{}{
		"total_lessons":     totalLessons,
		"completed_lessons": completedLessons,
		"progress":          percentage,
		"last_accessed":     now,
		"updated_at":        now,
	}
	if percentage >= 100 && totalLessons > 0 {
		assignments["completed_at"] = gorm.Expr("COALESCE(course_progress.completed_at, ?)", now)
	}

	row := courseModels.CourseProgress{
		UserID:           userID,
		CourseID:         courseID,
		TotalLessons:     int(totalLessons),
		CompletedLessons: int(completedLessons),
		Progress:         percentage,
		LastAccessed:     now,
	}
	if percentage >= 100 && totalLessons > 0 {
		row.CompletedAt = &now
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error; err != nil {
		return nil, err
	}

	var saved courseModels.CourseProgress
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&saved).Error; err != nil {
		return nil, err
	}

	return &saved, nil
}
