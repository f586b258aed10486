package achievementValidator

import (
	"lms/middleware"
	"lms/models"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var validTriggerTypes = map[string]bool{
	models.TriggerCourseCompleted: true,
	models.TriggerLessonCompleted: true,
	models.TriggerEnrollment:      true,
	models.TriggerComment:         true,
	models.TriggerLoginStreak:     true,
	models.TriggerCustom:          true,
}

func CreateAchievement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         string `json:"name"`
			Description  string `json:"description"`
			Icon         string `json:"icon"`
			TriggerType  string `json:"triggerType"`
			TriggerValue int    `json:"triggerValue"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}

		if !validTriggerTypes[reqData.TriggerType] {
			errors["triggerType"] = "Trigger type is not recognized!"
		}

		if reqData.TriggerValue < 1 {
			errors["triggerValue"] = "Trigger value must be at least 1!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAchievement", reqData)
		return c.Next()
	}
}

func UpdateAchievement() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         *string `json:"name"`
			Description  *string `json:"description"`
			Icon         *string `json:"icon"`
			TriggerValue *int    `json:"triggerValue"`
			Active       *bool   `json:"active"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Name != nil && strings.TrimSpace(*reqData.Name) == "" {
			errors["name"] = "Name cannot be empty!"
		}

		if reqData.TriggerValue != nil && *reqData.TriggerValue < 1 {
			errors["triggerValue"] = "Trigger value must be at least 1!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAchievementUpdate", reqData)
		return c.Next()
	}
}
