package userRoutes

import (
	controllers "lms/controllers/user"
	"lms/middleware"
	authValidators "lms/validators/auth"
	validators "lms/validators/user"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up profile and notification routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/api/user", middleware.JWTMiddleware)

	userGroup.Get("/profile", controllers.GetProfile)
	userGroup.Patch("/profile", validators.UpdateProfile(), controllers.UpdateProfile)

	userGroup.Get("/notifications", authValidators.List(), controllers.NotificationList)
	userGroup.Post("/notifications/:id/read", controllers.MarkNotificationRead)
	userGroup.Post("/notifications/read-all", controllers.MarkAllNotificationsRead)

	adminGroup := app.Group("/api/admin", middleware.JWTMiddleware, middleware.AdminOnly())
	adminGroup.Post("/notifications", validators.CreateNotification(), controllers.CreateNotification)
}
