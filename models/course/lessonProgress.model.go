package course

import (
	"time"

	"gorm.io/gorm"
)

// LessonProgress tracks a user's progress on a single lesson. One row per
// (user, lesson), upserted on every progress update. CompletedAt is set on
// the first transition to completed and kept even if the lesson is later
// un-completed.
type LessonProgress struct {
	gorm.Model
	UserID       uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_lesson_progress"`
	LessonID     uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_user_lesson_progress"`
	IsCompleted  bool       `json:"is_completed" gorm:"default:false"`
	Progress     float64    `json:"progress" gorm:"default:0"` // Fractional progress (0-100)
	CompletedAt  *time.Time `json:"completed_at"`
	LastAccessed time.Time  `json:"last_accessed"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
