package course

import (
	"time"

	"gorm.io/gorm"
)

// CourseProgress is the derived per-(user, course) aggregate. It is always
// recomputed from lesson_progress rows, never patched incrementally, so the
// counts cannot drift. CompletedAt is latched the first time progress
// reaches 100 and never cleared afterwards.
type CourseProgress struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_course_progress"`
	CourseID         uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_user_course_progress"`
	TotalLessons     int        `json:"total_lessons" gorm:"default:0"`
	CompletedLessons int        `json:"completed_lessons" gorm:"default:0"`
	Progress         float64    `json:"progress" gorm:"default:0"` // Completion percentage (0-100)
	CompletedAt      *time.Time `json:"completed_at"`
	LastAccessed     time.Time  `json:"last_accessed"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}
