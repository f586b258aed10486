package paymentController

import (
	"encoding/json"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services/paypal"
	"lms/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignatureVerifier checks an inbound webhook delivery against the
// registered webhook id. Wired in main to the PayPal client, faked in tests.
type SignatureVerifier interface {
	VerifyWebhookSignature(headers paypal.WebhookHeaders, rawBody []byte) (bool, error)
}

var Verifier SignatureVerifier

type webhookEnvelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

// HandleWebhook processes PayPal lifecycle events. Order of operations:
// signature first, then parse, then the dedupe insert, then dispatch.
// Nothing is mutated before the signature passes, and a redelivered event
// id returns 200 without touching any row.
func HandleWebhook(c *fiber.Ctx) error {
	headers := paypal.WebhookHeaders{
		TransmissionID:   c.Get("Paypal-Transmission-Id"),
		TransmissionSig:  c.Get("Paypal-Transmission-Sig"),
		TransmissionTime: c.Get("Paypal-Transmission-Time"),
		CertURL:          c.Get("Paypal-Cert-Url"),
		AuthAlgo:         c.Get("Paypal-Auth-Algo"),
	}

	if headers.TransmissionID == "" || headers.TransmissionSig == "" ||
		headers.TransmissionTime == "" || headers.CertURL == "" || headers.AuthAlgo == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Missing signature headers!", nil)
	}

	if Verifier == nil {
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Webhook verification unavailable!", nil)
	}

	rawBody := c.Body()

	valid, err := Verifier.VerifyWebhookSignature(headers, rawBody)
	if err != nil {
		log.Printf("[WEBHOOK] Signature verification error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Could not verify signature!", nil)
	}
	if !valid {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid webhook signature!", nil)
	}

	var event webhookEnvelope
	if err := json.Unmarshal(rawBody, &event); err != nil || event.ID == "" || event.EventType == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Malformed webhook payload!", nil)
	}

	db := database.Database.Db

	// Dedupe on the provider event id. Only a delivery that finished
	// processing short-circuits the retry; a row left behind by a failed
	// dispatch is picked up again so the provider's redelivery can succeed.
	audit := models.WebhookEvent{
		EventID:   event.ID,
		EventType: event.EventType,
		Payload:   datatypes.JSON(rawBody),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&audit)
	if result.Error != nil {
		log.Printf("[WEBHOOK] Failed to record event %s: %v", event.ID, result.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record event!", nil)
	}
	if result.RowsAffected == 0 {
		if err := db.Where("event_id = ?", event.ID).First(&audit).Error; err != nil {
			log.Printf("[WEBHOOK] Failed to load event %s: %v", event.ID, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record event!", nil)
		}
		if audit.Status == models.WebhookProcessed {
			return middleware.JsonResponse(c, fiber.StatusOK, true, "Event already processed.", nil)
		}
		log.Printf("[WEBHOOK] Reprocessing event %s after earlier failure", event.ID)
	}

	var dispatchErr error
	handled := true

	switch event.EventType {
	case "BILLING.SUBSCRIPTION.ACTIVATED":
		dispatchErr = handleSubscriptionActivated(db, event.Resource)
	case "BILLING.SUBSCRIPTION.CANCELLED":
		dispatchErr = updateSubscriptionStatus(db, event.Resource, models.SubscriptionCancelled)
	case "BILLING.SUBSCRIPTION.SUSPENDED":
		dispatchErr = updateSubscriptionStatus(db, event.Resource, models.SubscriptionSuspended)
	case "BILLING.SUBSCRIPTION.EXPIRED":
		dispatchErr = updateSubscriptionStatus(db, event.Resource, models.SubscriptionExpired)
	case "BILLING.SUBSCRIPTION.PAYMENT.FAILED":
		dispatchErr = updateSubscriptionStatus(db, event.Resource, models.SubscriptionSuspended)
	case "PAYMENT.SALE.COMPLETED":
		dispatchErr = handleSaleCompleted(db, event.Resource)
	case "PAYMENT.CAPTURE.COMPLETED":
		dispatchErr = handleCaptureCompleted(db, event.Resource)
	case "CHECKOUT.ORDER.APPROVED":
		dispatchErr = handleOrderApproved(db, event.Resource)
	default:
		handled = false
	}

	if !handled {
		db.Model(&audit).Update("status", models.WebhookRejected)
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unhandled event type!", nil)
	}

	if dispatchErr != nil {
		log.Printf("[WEBHOOK] Failed to process %s event %s: %v", event.EventType, event.ID, dispatchErr)
		db.Model(&audit).Update("status", models.WebhookRejected)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process event!", nil)
	}

	db.Model(&audit).Update("status", models.WebhookProcessed)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed.", nil)
}

type subscriptionResource struct {
	ID string `json:"id"`
}

// handleSubscriptionActivated flips the matching row to ACTIVE and cancels
// any other ACTIVE subscription of the same user, keeping the one-active-row
// invariant.
func handleSubscriptionActivated(db *gorm.DB, resource json.RawMessage) error {
	var res subscriptionResource
	if err := json.Unmarshal(resource, &res); err != nil || res.ID == "" {
		log.Printf("[WEBHOOK] Activation event without subscription id, skipping")
		return nil
	}

	var subscription models.Subscription
	if err := db.Where("paypal_subscription_id = ? AND is_deleted = ?", res.ID, false).
		Preload("Plan").First(&subscription).Error; err != nil {
		log.Printf("[WEBHOOK] Activation for unknown subscription %s, skipping", res.ID)
		return nil
	}

	startTime := time.Now()
	endTime := startTime.AddDate(0, subscription.Plan.DurationMonths, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ? AND id != ?", subscription.UserID, models.SubscriptionActive, subscription.ID).
			Update("status", models.SubscriptionCancelled).Error; err != nil {
			return err
		}

		if err := tx.Model(&subscription).Updates(map[string]interface{}{
			"status":        models.SubscriptionActive,
			"start_time":    startTime,
			"end_time":      endTime,
			"reminder_sent": false,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", subscription.UserID).
			Update("subscription_ends_at", endTime).Error
	})
	if err != nil {
		return err
	}

	go func() {
		var user models.User
		if err := db.Where("id = ?", subscription.UserID).First(&user).Error; err != nil {
			return
		}

		notification := models.Notification{
			UserID:  user.ID,
			Title:   "Subscription active",
			Message: "Your " + subscription.Plan.Name + " subscription is now active.",
			SentVia: "APP",
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("[WEBHOOK] Failed to create activation notification: %v", err)
		}

		utils.SendSubscriptionEmail(user.Email, user.Name, subscription.Plan.Name)
	}()

	return nil
}

// updateSubscriptionStatus moves the matching row to the given status.
// Events for unknown subscription ids are logged and acknowledged; PayPal
// redelivers forever otherwise.
func updateSubscriptionStatus(db *gorm.DB, resource json.RawMessage, status string) error {
	var res subscriptionResource
	if err := json.Unmarshal(resource, &res); err != nil || res.ID == "" {
		log.Printf("[WEBHOOK] Status event without subscription id, skipping")
		return nil
	}

	updates := map[string]interface{}{"status": status}
	if status == models.SubscriptionCancelled || status == models.SubscriptionExpired {
		updates["end_time"] = time.Now()
	}

	result := db.Model(&models.Subscription{}).
		Where("paypal_subscription_id = ? AND status != ? AND is_deleted = ?", res.ID, status, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		log.Printf("[WEBHOOK] No subscription updated for %s -> %s", res.ID, status)
	}

	return nil
}

type saleResource struct {
	BillingAgreementID string `json:"billing_agreement_id"`
}

// handleSaleCompleted extends a renewing subscription by one plan period.
// The sale carries the subscription id as its billing agreement.
func handleSaleCompleted(db *gorm.DB, resource json.RawMessage) error {
	var res saleResource
	if err := json.Unmarshal(resource, &res); err != nil || res.BillingAgreementID == "" {
		log.Printf("[WEBHOOK] Sale event without billing agreement id, skipping")
		return nil
	}

	var subscription models.Subscription
	if err := db.Where("paypal_subscription_id = ? AND status = ? AND is_deleted = ?",
		res.BillingAgreementID, models.SubscriptionActive, false).
		Preload("Plan").First(&subscription).Error; err != nil {
		log.Printf("[WEBHOOK] Sale for unknown subscription %s, skipping", res.BillingAgreementID)
		return nil
	}

	base := time.Now()
	if subscription.EndTime != nil && subscription.EndTime.After(base) {
		base = *subscription.EndTime
	}
	endTime := base.AddDate(0, subscription.Plan.DurationMonths, 0)

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&subscription).Updates(map[string]interface{}{
			"end_time":      endTime,
			"reminder_sent": false,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", subscription.UserID).
			Update("subscription_ends_at", endTime).Error
	})
}

type captureResource struct {
	ID                string `json:"id"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// handleCaptureCompleted is the server-side confirmation path for course
// purchases: even if the client never calls capture-order, the webhook
// finalizes the enrollment.
func handleCaptureCompleted(db *gorm.DB, resource json.RawMessage) error {
	var res captureResource
	if err := json.Unmarshal(resource, &res); err != nil {
		log.Printf("[WEBHOOK] Malformed capture resource, skipping")
		return nil
	}

	orderID := res.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = res.ID
	}
	if orderID == "" {
		return nil
	}

	var payment models.Payment
	if err := db.Where("transaction_id = ? AND is_deleted = ?", orderID, false).First(&payment).Error; err != nil {
		log.Printf("[WEBHOOK] Capture for unknown order %s, skipping", orderID)
		return nil
	}

	if payment.Status == models.PaymentCompleted {
		return nil
	}

	return FinalizePurchase(db, &payment)
}

type orderResource struct {
	ID string `json:"id"`
}

// handleOrderApproved captures an approved order server side, so a buyer who
// approved the payment but never returned to the site still gets enrolled.
func handleOrderApproved(db *gorm.DB, resource json.RawMessage) error {
	var res orderResource
	if err := json.Unmarshal(resource, &res); err != nil || res.ID == "" {
		log.Printf("[WEBHOOK] Approval event without order id, skipping")
		return nil
	}

	var payment models.Payment
	if err := db.Where("transaction_id = ? AND is_deleted = ?", res.ID, false).First(&payment).Error; err != nil {
		log.Printf("[WEBHOOK] Approval for unknown order %s, skipping", res.ID)
		return nil
	}
	if payment.Status == models.PaymentCompleted {
		return nil
	}

	if Provider == nil {
		log.Printf("[WEBHOOK] Payment provider not configured, cannot capture order %s", res.ID)
		return nil
	}

	status, err := Provider.CaptureOrder(res.ID)
	if err != nil {
		return err
	}
	if status != "COMPLETED" {
		log.Printf("[WEBHOOK] Capture of approved order %s returned %s", res.ID, status)
		return nil
	}

	return FinalizePurchase(db, &payment)
}
