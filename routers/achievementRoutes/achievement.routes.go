package achievementRoutes

import (
	controllers "lms/controllers/achievement"
	"lms/middleware"
	validators "lms/validators/achievement"

	"github.com/gofiber/fiber/v2"
)

// SetupAchievementRoutes sets up achievement listing and admin definition
// management.
func SetupAchievementRoutes(app *fiber.App) {
	achievementGroup := app.Group("/api/achievements", middleware.JWTMiddleware)

	achievementGroup.Get("/", controllers.ListAchievements)
	achievementGroup.Get("/mine", controllers.MyAchievements)
	achievementGroup.Post("/recheck", controllers.RecheckAchievements)

	adminGroup := app.Group("/api/admin/achievements", middleware.JWTMiddleware, middleware.AdminOnly())
	adminGroup.Post("/", validators.CreateAchievement(), controllers.CreateAchievement)
	adminGroup.Patch("/:id", validators.UpdateAchievement(), controllers.UpdateAchievement)
	adminGroup.Delete("/:id", controllers.DeleteAchievement)
}
