package models

import (
	"time"

	"gorm.io/gorm"
)

// TriggerType enum values. New trigger kinds must also be handled in
// services/achievements when computing the user metric.
const (
	TriggerCourseCompleted = "COURSE_COMPLETED"
	TriggerLessonCompleted = "LESSON_COMPLETED"
	TriggerEnrollment      = "ENROLLMENT"
	TriggerComment         = "COMMENT"
	TriggerLoginStreak     = "LOGIN_STREAK"
	TriggerCustom          = "CUSTOM"
)

// Achievement is an admin-managed achievement definition
type Achievement struct {
	gorm.Model
	Name         string `gorm:"not null" json:"name"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	TriggerType  string `gorm:"type:varchar(30);not null;index" json:"trigger_type"`
	TriggerValue int    `gorm:"not null;default:1" json:"trigger_value"` // Threshold the user metric must reach
	Active       bool   `gorm:"default:true" json:"active"`
	IsDeleted    bool   `gorm:"default:false" json:"isDeleted"`
}

// UserAchievement links a user to an earned achievement.
// The (user_id, achievement_id) pair is unique; Earned only ever moves
// false -> true and EarnedAt is written once.
type UserAchievement struct {
	gorm.Model
	UserID        uint       `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint       `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Earned        bool       `gorm:"default:false" json:"earned"`
	EarnedAt      *time.Time `json:"earned_at"`

	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
