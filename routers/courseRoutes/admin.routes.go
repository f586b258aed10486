package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up course management routes. Admin only.
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/api/admin/courses", middleware.JWTMiddleware, middleware.AdminOnly())

	// Courses
	adminGroup.Get("/", validators.List(), controllers.AdminCourseList)
	adminGroup.Post("/", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Patch("/:id", validators.UpdateCourse(), controllers.UpdateCourse)
	adminGroup.Post("/:id/publish", controllers.PublishCourse)
	adminGroup.Delete("/:id", controllers.DeleteCourse)

	// Modules
	adminGroup.Post("/:id/modules", validators.CreateModule(), controllers.CreateModule)
	adminGroup.Patch("/modules/:moduleId", validators.UpdateModule(), controllers.UpdateModule)
	adminGroup.Delete("/modules/:moduleId", controllers.DeleteModule)

	// Lessons
	adminGroup.Post("/modules/:moduleId/lessons", validators.CreateLesson(), controllers.CreateLesson)
	adminGroup.Patch("/lessons/:lessonId", validators.UpdateLesson(), controllers.UpdateLesson)
	adminGroup.Post("/lessons/:lessonId/publish", controllers.PublishLesson)
	adminGroup.Delete("/lessons/:lessonId", controllers.DeleteLesson)
}
