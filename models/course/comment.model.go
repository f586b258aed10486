package course

import "gorm.io/gorm"

// Comment is a user comment on a lesson
type Comment struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	LessonID  uint   `json:"lesson_id" gorm:"index;not null"`
	Content   string `json:"content" gorm:"type:text"`
	IsDeleted bool   `gorm:"default:false"`
}
