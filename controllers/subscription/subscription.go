package subscriptionController

import (
	"encoding/json"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// BillingProvider is the slice of the payment client used for recurring
// subscriptions. Wired in main, faked in tests.
type BillingProvider interface {
	CreateProduct(name, description string) (string, error)
	CreatePlan(productID, name, description string, price float64, durationMonths int) (string, error)
	CreateSubscription(planID string) (string, string, error)
	CancelSubscription(subscriptionID, reason string) error
	DeactivatePlan(planID string) error
}

var Provider BillingProvider

// CreatePlan registers a subscription plan locally and mirrors it to the
// payment provider. Admin only.
func CreatePlan(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedPlan").(*struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Price          float64  `json:"price"`
		DurationMonths int      `json:"durationMonths"`
		Features       []string `json:"features"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if err := db.Where("name = ? AND active = ?", reqData.Name, true).First(&models.SubscriptionPlan{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A plan with this name already exists!", nil)
	}

	features, err := json.Marshal(reqData.Features)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid features list!", nil)
	}

	plan := models.SubscriptionPlan{
		Name:           reqData.Name,
		Description:    reqData.Description,
		Price:          reqData.Price,
		DurationMonths: reqData.DurationMonths,
		Features:       datatypes.JSON(features),
		Active:         true,
	}

	if Provider != nil {
		productID, err := Provider.CreateProduct(reqData.Name, reqData.Description)
		if err != nil {
			log.Printf("[SUBSCRIPTION] Failed to create provider product for plan %q: %v", reqData.Name, err)
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to register plan with payment provider!", nil)
		}

		paypalPlanID, err := Provider.CreatePlan(productID, reqData.Name, reqData.Description, reqData.Price, reqData.DurationMonths)
		if err != nil {
			log.Printf("[SUBSCRIPTION] Failed to create provider plan for %q: %v", reqData.Name, err)
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to register plan with payment provider!", nil)
		}
		plan.PaypalPlanID = paypalPlanID
	}

	if err := db.Create(&plan).Error; err != nil {
		log.Printf("Error creating subscription plan: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create plan!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Plan created successfully.", plan)
}

func ListPlans(c *fiber.Ctx) error {
	db := database.Database.Db

	var plans []models.SubscriptionPlan
	if err := db.Where("active = ?", true).Order("price ASC").Find(&plans).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch plans!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Plan List.", plans)
}

// UpdatePlan edits the display fields of a plan. Price and duration are
// fixed once the provider plan exists; repricing means creating a new plan
// and retiring this one.
func UpdatePlan(c *fiber.Ctx) error {
	planID, err := c.ParamsInt("id")
	if err != nil || planID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Plan ID!", nil)
	}

	reqData, ok := c.Locals("validatedPlanUpdate").(*struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Features    *[]string `json:"features"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var plan models.SubscriptionPlan
	if err := db.Where("id = ?", planID).First(&plan).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Plan not found!", nil)
	}

	updates := make(map[string]interface{})
	if reqData.Name != nil {
		updates["name"] = *reqData.Name
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Features != nil {
		features, err := json.Marshal(*reqData.Features)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid features list!", nil)
		}
		updates["features"] = datatypes.JSON(features)
	}

	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(&plan).Updates(updates).Error; err != nil {
		log.Printf("Error updating plan %d: %v", planID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update plan!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Plan updated successfully.", plan)
}

// DeactivatePlan retires a plan from sale. Existing subscriptions run on
// until their own lifecycle ends them.
func DeactivatePlan(c *fiber.Ctx) error {
	planID, err := c.ParamsInt("id")
	if err != nil || planID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Plan ID!", nil)
	}

	db := database.Database.Db

	var plan models.SubscriptionPlan
	if err := db.Where("id = ? AND active = ?", planID, true).First(&plan).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Plan not found!", nil)
	}

	if Provider != nil && plan.PaypalPlanID != "" {
		if err := Provider.DeactivatePlan(plan.PaypalPlanID); err != nil {
			log.Printf("[SUBSCRIPTION] Failed to deactivate provider plan %s: %v", plan.PaypalPlanID, err)
		}
	}

	if err := db.Model(&plan).Update("active", false).Error; err != nil {
		log.Printf("Error deactivating plan %d: %v", planID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to deactivate plan!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Plan deactivated.", nil)
}

// Subscribe creates a PENDING subscription and returns the provider
// approval link. The row only becomes ACTIVE when the activation webhook
// arrives.
func Subscribe(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedSubscribe").(*struct {
		PlanID uint `json:"planId"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var plan models.SubscriptionPlan
	if err := db.Where("id = ? AND active = ?", reqData.PlanID, true).First(&plan).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Plan not found!", nil)
	}

	var existing models.Subscription
	if err := db.Where("user_id = ? AND status = ? AND is_deleted = ?", userId, models.SubscriptionActive, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You already have an active subscription!", nil)
	}

	if Provider == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Subscriptions are not available right now!", nil)
	}

	paypalSubID, approveURL, err := Provider.CreateSubscription(plan.PaypalPlanID)
	if err != nil {
		log.Printf("Error creating provider subscription: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to create subscription!", nil)
	}

	subscription := models.Subscription{
		UserID:               userId,
		PaypalSubscriptionID: paypalSubID,
		PlanID:               plan.ID,
		Status:               models.SubscriptionPending,
	}
	if err := db.Create(&subscription).Error; err != nil {
		log.Printf("Error saving subscription: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save subscription!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Subscription created. Approval required.", fiber.Map{
		"subscriptionId": subscription.ID,
		"approveUrl":     approveURL,
	})
}

func MySubscription(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var subscription models.Subscription
	if err := db.Where("user_id = ? AND is_deleted = ?", userId, false).
		Order("created_at DESC").
		Preload("Plan").
		First(&subscription).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No subscription found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Subscription Details.", subscription)
}

// CancelSubscription cancels the user's active subscription at the provider
// and locally. Access ends immediately.
func CancelSubscription(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var subscription models.Subscription
	if err := db.Where("user_id = ? AND status = ? AND is_deleted = ?", userId, models.SubscriptionActive, false).First(&subscription).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No active subscription found!", nil)
	}

	if Provider != nil && subscription.PaypalSubscriptionID != "" {
		if err := Provider.CancelSubscription(subscription.PaypalSubscriptionID, "Cancelled by user"); err != nil {
			log.Printf("Error cancelling provider subscription %s: %v", subscription.PaypalSubscriptionID, err)
			return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to cancel subscription with payment provider!", nil)
		}
	}

	if err := db.Model(&subscription).Update("status", models.SubscriptionCancelled).Error; err != nil {
		log.Printf("Error updating cancelled subscription: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to cancel subscription!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Subscription cancelled.", nil)
}
