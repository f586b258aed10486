package paymentController

import (
	"fmt"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/achievements"
	"lms/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderProvider is the slice of the payment client used for one-time
// course purchases. Wired in main, faked in tests.
type OrderProvider interface {
	CreateOrder(amount float64, description, returnURL, cancelURL string) (string, string, error)
	CaptureOrder(orderID string) (string, error)
}

var Provider OrderProvider

func CreateOrder(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedOrder").(*struct {
		CourseID uint `json:"courseId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ? AND is_published = ?", reqData.CourseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if course.Price <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This course does not require payment!", nil)
	}

	// Already enrolled users have nothing to buy
	var existing courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userId, reqData.CourseID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already enrolled in this course!", nil)
	}

	if Provider == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payments are not available right now!", nil)
	}

	returnURL := fmt.Sprintf("%s/payment/success?courseId=%d", utils.AppHost(), course.ID)
	cancelURL := fmt.Sprintf("%s/payment/cancel?courseId=%d", utils.AppHost(), course.ID)

	orderID, approveURL, err := Provider.CreateOrder(course.Price, course.Title, returnURL, cancelURL)
	if err != nil {
		log.Printf("Error creating payment order: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to create payment order!", nil)
	}

	payment := models.Payment{
		UserID:        userId,
		CourseID:      course.ID,
		Amount:        course.Price,
		Method:        "PAYPAL",
		TransactionID: orderID,
		Status:        models.PaymentPending,
	}
	if err := db.Create(&payment).Error; err != nil {
		log.Printf("Error saving payment record: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save payment!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Order created.", fiber.Map{
		"orderId":    orderID,
		"approveUrl": approveURL,
	})
}

func CaptureOrder(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCapture").(*struct {
		OrderID string `json:"orderId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var payment models.Payment
	if err := db.Where("transaction_id = ? AND user_id = ? AND is_deleted = ?", reqData.OrderID, userId, false).First(&payment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Payment not found!", nil)
	}

	if payment.Status == models.PaymentCompleted {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment already captured.", payment)
	}

	if Provider == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Payments are not available right now!", nil)
	}

	status, err := Provider.CaptureOrder(reqData.OrderID)
	if err != nil {
		log.Printf("Error capturing order %s: %v", reqData.OrderID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to capture payment!", nil)
	}

	if status != "COMPLETED" {
		db.Model(&payment).Update("status", models.PaymentFailed)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Payment was not completed!", nil)
	}

	if err := FinalizePurchase(db, &payment); err != nil {
		log.Printf("Error finalizing purchase for order %s: %v", reqData.OrderID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to finalize purchase!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment captured. Course unlocked.", payment)
}

// FinalizePurchase marks the payment completed and creates the enrollment.
// Safe to call more than once for the same payment: the enrollment insert
// goes through the (user_id, course_id) unique index and redundant calls
// change nothing.
func FinalizePurchase(db *gorm.DB, payment *models.Payment) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(payment).Update("status", models.PaymentCompleted).Error; err != nil {
			return err
		}

		enrollment := courseModels.Enrollment{
			UserID:      payment.UserID,
			CourseID:    payment.CourseID,
			PaymentID:   payment.ID,
			PurchasedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&enrollment).Error
	})
	if err != nil {
		return err
	}

	payment.Status = models.PaymentCompleted

	go notifyPurchase(db, payment.UserID, payment.CourseID, payment.Amount)

	return nil
}

func notifyPurchase(db *gorm.DB, userID, courseID uint, amount float64) {
	if _, err := achievements.CheckAndAward(db, userID, models.TriggerEnrollment, 0); err != nil {
		log.Printf("[PAYMENT] Enrollment achievement check failed for user %d: %v", userID, err)
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return
	}
	var course courseModels.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		return
	}

	utils.SendPurchaseConfirmationEmail(user.Email, user.Name, course.Title, amount)
}

func PaymentHistory(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var payments []models.Payment
	if err := db.Where("user_id = ? AND is_deleted = ?", userId, false).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch payments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment History.", payments)
}
