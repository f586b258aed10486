package courseController

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services/entitlement"

	"github.com/gofiber/fiber/v2"
)

func GetAllCourses(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	offset := (*reqData.Page - 1) * (*reqData.Limit)

	db := database.Database.Db

	var courses []courseModels.Course
	var total int64

	if err := db.Where("is_deleted = ? AND is_published = ?", false, true).
		Order("created_at DESC").
		Offset(offset).
		Limit(*reqData.Limit).
		Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true).Count(&total)

	response := map[string]interface{}{
		"courses": courses,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  *reqData.Page,
			"limit": *reqData.Limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course List.", response)
}

// lessonView is the outline entry returned to users. VideoURL is blanked
// for locked lessons; the outline itself is always visible.
type lessonView struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    int     `json:"duration"`
	OrderIndex  int     `json:"order_index"`
	IsPreview   bool    `json:"is_preview"`
	VideoURL    string  `json:"video_url,omitempty"`
	Locked      bool    `json:"locked"`
	IsCompleted bool    `json:"is_completed"`
	Progress    float64 `json:"progress"`
}

func GetCourseDetails(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	granted, err := entitlement.HasAccess(db, userId, uint(courseID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking access!", nil)
	}

	var modules []courseModels.Module
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("order_index ASC").
		Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	var lessons []courseModels.Lesson
	if err := db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).
		Order("order_index ASC").
		Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	// User's lesson progress, keyed by lesson id
	var progressRows []courseModels.LessonProgress
	db.Where("user_id = ?", userId).Find(&progressRows)
	progressByLesson := make(map[uint]courseModels.LessonProgress, len(progressRows))
	for _, row := range progressRows {
		progressByLesson[row.LessonID] = row
	}

	lessonsByModule := make(map[uint][]lessonView)
	for _, lesson := range lessons {
		unlocked := granted || lesson.IsPreview
		view := lessonView{
			ID:          lesson.ID,
			Title:       lesson.Title,
			Description: lesson.Description,
			Duration:    lesson.Duration,
			OrderIndex:  lesson.OrderIndex,
			IsPreview:   lesson.IsPreview,
			Locked:      !unlocked,
		}
		if unlocked {
			view.VideoURL = lesson.VideoURL
		}
		if row, found := progressByLesson[lesson.ID]; found {
			view.IsCompleted = row.IsCompleted
			view.Progress = row.Progress
		}
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], view)
	}

	type moduleView struct {
		ID          uint         `json:"id"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
		OrderIndex  int          `json:"order_index"`
		Lessons     []lessonView `json:"lessons"`
	}

	moduleViews := make([]moduleView, 0, len(modules))
	for _, module := range modules {
		moduleViews = append(moduleViews, moduleView{
			ID:          module.ID,
			Title:       module.Title,
			Description: module.Description,
			OrderIndex:  module.OrderIndex,
			Lessons:     lessonsByModule[module.ID],
		})
	}

	var courseProgress courseModels.CourseProgress
	db.Where("user_id = ? AND course_id = ?", userId, courseID).First(&courseProgress)

	response := map[string]interface{}{
		"course":    course,
		"hasAccess": granted,
		"modules":   moduleViews,
		"progress":  courseProgress,
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course Details.", response)
}

func GetMyEnrollments(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.Where("user_id = ? AND is_deleted = ?", userId, false).
		Preload("Course").
		Order("purchased_at DESC").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment List.", enrollments)
}

func GetCourseProgress(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
	}

	db := database.Database.Db

	var courseProgress courseModels.CourseProgress
	if err := db.Where("user_id = ? AND course_id = ?", userId, courseID).First(&courseProgress).Error; err != nil {
		// No progress yet is not an error
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Course Progress.", courseModels.CourseProgress{
			UserID:   userId,
			CourseID: uint(courseID),
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course Progress.", courseProgress)
}
