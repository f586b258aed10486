package achievements

import (
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckAndAward evaluates all active achievement definitions of the given
// trigger type against the user's current metric and awards every
// definition whose threshold has been reached. It returns only the
// achievements newly awarded by this call; already-earned ones are silent
// no-ops.
//
// The award write is a conditional upsert on the (user_id, achievement_id)
// uniqueness constraint, so across any number of concurrent calls exactly
// one observes "newly awarded" per achievement. Multiple process instances
// may run this concurrently; no in-process locking is involved.
func CheckAndAward(db *gorm.DB, userID uint, triggerType string, value int) ([]models.Achievement, error) {
	metric, err := computeMetric(db, userID, triggerType, value)
	if err != nil {
		return nil, err
	}

	var candidates []models.Achievement
	if err := db.Where("trigger_type = ? AND trigger_value <= ? AND active = ? AND is_deleted = ?",
		triggerType, metric, true, false).Find(&candidates).Error; err != nil {
		return nil, err
	}

	var awarded []models.Achievement
	for _, achievement := range candidates {
		newlyAwarded, err := awardOnce(db, userID, achievement.ID)
		if err != nil {
			log.Printf("[ACHIEVEMENTS] Failed to award achievement %d to user %d: %v", achievement.ID, userID, err)
			continue
		}
		if newlyAwarded {
			awarded = append(awarded, achievement)
		}
	}

	if len(awarded) > 0 {
		notifyAwards(db, userID, awarded)
	}

	return awarded, nil
}

// awardOnce marks the achievement earned for the user if and only if no
// earned row already exists. Returns true when this call did the awarding.
//
// Two atomic steps, each serialized by the store rather than by the app:
// an INSERT .. ON CONFLICT DO NOTHING against the composite unique index,
// and, when the row pre-exists (assigned but not earned), an UPDATE guarded
// by "earned = false". A read-then-write pair would race here.
func awardOnce(db *gorm.DB, userID uint, achievementID uint) (bool, error) {
	now := time.Now()

	row := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		Earned:        true,
		EarnedAt:      &now,
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// A row already exists. It may have been assigned without being earned;
	// flip it only in that case.
	result = db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND earned = ?", userID, achievementID, false).
		Updates(map[string]interface{}{"earned": true, "earned_at": now})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// computeMetric resolves the user's current value for a trigger type via a
// dedicated aggregate query per kind. Unrecognized kinds fall back to the
// caller-supplied value, defaulting to 1.
func computeMetric(db *gorm.DB, userID uint, triggerType string, value int) (int, error) {
	var count int64

	switch triggerType {
	case models.TriggerCourseCompleted:
		err := db.Model(&courseModels.CourseProgress{}).
			Where("user_id = ? AND total_lessons > 0 AND completed_lessons >= total_lessons", userID).
			Count(&count).Error
		return int(count), err

	case models.TriggerLessonCompleted:
		err := db.Model(&courseModels.LessonProgress{}).
			Where("user_id = ? AND is_completed = ?", userID, true).
			Count(&count).Error
		return int(count), err

	case models.TriggerEnrollment:
		err := db.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Count(&count).Error
		return int(count), err

	case models.TriggerComment:
		err := db.Model(&courseModels.Comment{}).
			Where("user_id = ? AND is_deleted = ?", userID, false).
			Count(&count).Error
		return int(count), err

	case models.TriggerLoginStreak:
		var user models.User
		if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return 0, err
		}
		return user.LoginStreak, nil

	default:
		if value > 0 {
			return value, nil
		}
		return 1, nil
	}
}

// notifyAwards records an in-app notification per new award and fires a
// best-effort congratulation email. Neither failure affects the award.
func notifyAwards(db *gorm.DB, userID uint, awarded []models.Achievement) {
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		log.Printf("[ACHIEVEMENTS] Could not load user %d for notifications: %v", userID, err)
		return
	}

	for _, achievement := range awarded {
		notification := models.Notification{
			UserID:  userID,
			Title:   "Achievement unlocked!",
			Message: "You earned the achievement: " + achievement.Name,
			SentVia: "APP",
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("[ACHIEVEMENTS] Failed to create notification for user %d: %v", userID, err)
		}

		utils.SendAchievementEmail(user.Email, user.Name, achievement.Name, achievement.Description)
	}
}
