package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/api/courses")

	// Catalog
	courseGroup.Get("/", middleware.JWTMiddleware, validators.List(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetCourseDetails)

	// Progress
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, middleware.RequireCourseAccess(), controllers.GetCourseProgress)
	courseGroup.Post("/lessons/:lessonId/progress", middleware.JWTMiddleware, validators.UpdateProgress(), controllers.UpdateLessonProgress)

	// Comments
	courseGroup.Get("/lessons/:lessonId/comments", middleware.JWTMiddleware, validators.List(), controllers.ListComments)
	courseGroup.Post("/lessons/:lessonId/comments", middleware.JWTMiddleware, validators.CreateComment(), controllers.CreateComment)
	courseGroup.Delete("/comments/:commentId", middleware.JWTMiddleware, controllers.DeleteComment)

	// Enrollments
	userGroup := app.Group("/api/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetMyEnrollments)
}
