package middleware

import (
	"lms/database"
	"lms/models"
	"lms/services/entitlement"

	"github.com/gofiber/fiber/v2"
)

// AdminOnly returns a middleware that rejects requests from non-admin users
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND role = ?", userID, false, models.RoleAdmin).First(&user).Error; err != nil {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		return c.Next()
	}
}

// RequireCourseAccess returns a middleware that checks whether the acting
// user may view the gated content of the course in the ":id" route param.
// The denial message is deliberately generic: which rule failed (role,
// subscription, purchase) is never revealed.
func RequireCourseAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		courseID, err := c.ParamsInt("id")
		if err != nil || courseID < 1 {
			return JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		granted, err := entitlement.HasAccess(database.Database.Db, userID, uint(courseID))
		if err != nil {
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking access!", nil)
		}
		if !granted {
			return JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
		}

		return c.Next()
	}
}
