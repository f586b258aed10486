package achievementController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services/achievements"
	"log"

	"github.com/gofiber/fiber/v2"
)

// CreateAchievement registers a new achievement definition. Admin only.
func CreateAchievement(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAchievement").(*struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		Icon         string `json:"icon"`
		TriggerType  string `json:"triggerType"`
		TriggerValue int    `json:"triggerValue"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if err := db.Where("name = ? AND is_deleted = ?", reqData.Name, false).First(&models.Achievement{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "An achievement with this name already exists!", nil)
	}

	achievement := models.Achievement{
		Name:         reqData.Name,
		Description:  reqData.Description,
		Icon:         reqData.Icon,
		TriggerType:  reqData.TriggerType,
		TriggerValue: reqData.TriggerValue,
		Active:       true,
	}

	if err := db.Create(&achievement).Error; err != nil {
		log.Printf("Error creating achievement: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Achievement created successfully.", achievement)
}

func UpdateAchievement(c *fiber.Ctx) error {
	achievementID, err := c.ParamsInt("id")
	if err != nil || achievementID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Achievement ID!", nil)
	}

	reqData, ok := c.Locals("validatedAchievementUpdate").(*struct {
		Name         *string `json:"name"`
		Description  *string `json:"description"`
		Icon         *string `json:"icon"`
		TriggerValue *int    `json:"triggerValue"`
		Active       *bool   `json:"active"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var achievement models.Achievement
	if err := db.Where("id = ? AND is_deleted = ?", achievementID, false).First(&achievement).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Achievement not found!", nil)
	}

	updates := make(map[string]interface{})
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Icon != nil {
		updates["icon"] = *reqData.Icon
	}
	if reqData.TriggerValue != nil {
		updates["trigger_value"] = *reqData.TriggerValue
	}
	if reqData.Active != nil {
		updates["active"] = *reqData.Active
	}

	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(&achievement).Updates(updates).Error; err != nil {
		log.Printf("Error updating achievement %d: %v", achievementID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievement updated successfully.", achievement)
}

func DeleteAchievement(c *fiber.Ctx) error {
	achievementID, err := c.ParamsInt("id")
	if err != nil || achievementID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Achievement ID!", nil)
	}

	db := database.Database.Db

	var achievement models.Achievement
	if err := db.Where("id = ? AND is_deleted = ?", achievementID, false).First(&achievement).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Achievement not found!", nil)
	}

	// Already-earned rows survive; the definition just stops being awarded
	if err := db.Model(&achievement).Updates(map[string]interface{}{
		"is_deleted": true,
		"active":     false,
	}).Error; err != nil {
		log.Printf("Error deleting achievement %d: %v", achievementID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete achievement!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievement deleted.", nil)
}

// ListAchievements returns all active definitions with the acting user's
// earned state merged in.
func ListAchievements(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var definitions []models.Achievement
	if err := db.Where("active = ? AND is_deleted = ?", true, false).
		Order("trigger_type ASC, trigger_value ASC").
		Find(&definitions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch achievements!", nil)
	}

	var earnedRows []models.UserAchievement
	db.Where("user_id = ? AND earned = ?", userId, true).Find(&earnedRows)
	earnedByID := make(map[uint]models.UserAchievement, len(earnedRows))
	for _, row := range earnedRows {
		earnedByID[row.AchievementID] = row
	}

	type achievementView struct {
		models.Achievement
		Earned   bool        `json:"earned"`
		EarnedAt interface{} `json:"earned_at,omitempty"`
	}

	views := make([]achievementView, 0, len(definitions))
	for _, definition := range definitions {
		view := achievementView{Achievement: definition}
		if row, found := earnedByID[definition.ID]; found {
			view.Earned = true
			view.EarnedAt = row.EarnedAt
		}
		views = append(views, view)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievement List.", views)
}

// MyAchievements returns only the achievements the user has earned
func MyAchievements(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var earned []models.UserAchievement
	if err := db.Where("user_id = ? AND earned = ?", userId, true).
		Preload("Achievement").
		Order("earned_at DESC").
		Find(&earned).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch achievements!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Earned Achievements.", earned)
}

// RecheckAchievements re-evaluates every trigger type for the acting user.
// Useful after definitions change; awarding stays exactly-once regardless.
func RecheckAchievements(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	triggerTypes := []string{
		models.TriggerCourseCompleted,
		models.TriggerLessonCompleted,
		models.TriggerEnrollment,
		models.TriggerComment,
		models.TriggerLoginStreak,
	}

	var newlyAwarded []models.Achievement
	for _, triggerType := range triggerTypes {
		awarded, err := achievements.CheckAndAward(db, userId, triggerType, 0)
		if err != nil {
			log.Printf("Error rechecking %s achievements for user %d: %v", triggerType, userId, err)
			continue
		}
		newlyAwarded = append(newlyAwarded, awarded...)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievements rechecked.", fiber.Map{
		"newlyAwarded": newlyAwarded,
	})
}
