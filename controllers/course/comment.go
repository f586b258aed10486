package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/achievements"
	"lms/services/entitlement"
	"log"

	"github.com/gofiber/fiber/v2"
)

func CreateComment(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID, err := c.ParamsInt("lessonId")
	if err != nil || lessonID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
	}

	reqData, ok := c.Locals("validatedComment").(*struct {
		Content string `json:"content"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var lesson courseModels.Lesson
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if !lesson.IsPreview {
		granted, err := entitlement.HasAccess(db, userId, lesson.CourseID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking access!", nil)
		}
		if !granted {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
		}
	}

	comment := courseModels.Comment{
		UserID:   userId,
		LessonID: uint(lessonID),
		Content:  reqData.Content,
	}

	if err := db.Create(&comment).Error; err != nil {
		log.Printf("Error creating comment: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to post comment!", nil)
	}

	go func(userID uint) {
		if _, err := achievements.CheckAndAward(db, userID, models.TriggerComment, 0); err != nil {
			log.Printf("[COMMENT] Achievement check failed for user %d: %v", userID, err)
		}
	}(userId)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Comment posted.", comment)
}

func ListComments(c *fiber.Ctx) error {
	lessonID, err := c.ParamsInt("lessonId")
	if err != nil || lessonID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
	}

	reqData, ok := c.Locals("validatedList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	offset := (*reqData.Page - 1) * (*reqData.Limit)

	db := database.Database.Db

	var comments []courseModels.Comment
	var total int64

	if err := db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).
		Order("created_at DESC").
		Offset(offset).
		Limit(*reqData.Limit).
		Find(&comments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch comments!", nil)
	}

	db.Model(&courseModels.Comment{}).Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Count(&total)

	response := map[string]interface{}{
		"comments": comments,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  *reqData.Page,
			"limit": *reqData.Limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comment List.", response)
}

// DeleteComment lets the author or an admin soft-delete a comment
func DeleteComment(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	commentID, err := c.ParamsInt("commentId")
	if err != nil || commentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Comment ID!", nil)
	}

	db := database.Database.Db

	var comment courseModels.Comment
	if err := db.Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Comment not found!", nil)
	}

	if comment.UserID != userId {
		var user models.User
		if err := db.Where("id = ? AND role = ?", userId, models.RoleAdmin).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only delete your own comments!", nil)
		}
	}

	if err := db.Model(&comment).Update("is_deleted", true).Error; err != nil {
		log.Printf("Error deleting comment %d: %v", commentID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete comment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Comment deleted.", nil)
}
