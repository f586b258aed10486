package subscriptionRoutes

import (
	controllers "lms/controllers/subscription"
	"lms/middleware"
	validators "lms/validators/subscription"

	"github.com/gofiber/fiber/v2"
)

// SetupSubscriptionRoutes sets up plan and subscription routes
func SetupSubscriptionRoutes(app *fiber.App) {
	subGroup := app.Group("/api/subscriptions")

	subGroup.Get("/plans", controllers.ListPlans)
	subGroup.Post("/subscribe", middleware.JWTMiddleware, validators.Subscribe(), controllers.Subscribe)
	subGroup.Get("/me", middleware.JWTMiddleware, controllers.MySubscription)
	subGroup.Post("/cancel", middleware.JWTMiddleware, controllers.CancelSubscription)

	adminGroup := app.Group("/api/admin/subscriptions", middleware.JWTMiddleware, middleware.AdminOnly())
	adminGroup.Post("/plans", validators.CreatePlan(), controllers.CreatePlan)
	adminGroup.Patch("/plans/:id", validators.UpdatePlan(), controllers.UpdatePlan)
	adminGroup.Post("/plans/:id/deactivate", controllers.DeactivatePlan)
}
