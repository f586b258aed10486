package paymentController

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/paypal"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeVerifier stands in for the PayPal signature check
type fakeVerifier struct {
	valid bool
	err   error
}

func (f fakeVerifier) VerifyWebhookSignature(headers paypal.WebhookHeaders, rawBody []byte) (bool, error) {
	return f.valid, f.err
}

func newWebhookApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.LoadConfig()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.SubscriptionPlan{},
		&models.Payment{},
		&models.WebhookEvent{},
		&models.Notification{},
		&models.Achievement{},
		&models.UserAchievement{},
		&courseModels.Course{},
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.CourseProgress{},
		&courseModels.Comment{},
	))

	database.Database = database.DbInstance{Db: db}
	Verifier = fakeVerifier{valid: true}

	app := fiber.New()
	app.Post("/api/webhooks/paypal", HandleWebhook)

	return app, db
}

func signedRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paypal", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Paypal-Transmission-Id", "tid-1")
	req.Header.Set("Paypal-Transmission-Sig", "sig-1")
	req.Header.Set("Paypal-Transmission-Time", "2026-01-01T00:00:00Z")
	req.Header.Set("Paypal-Cert-Url", "https://api.paypal.com/cert")
	req.Header.Set("Paypal-Auth-Algo", "SHA256withRSA")
	return req
}

func seedSubscription(t *testing.T, db *gorm.DB, paypalID, status string) (models.User, models.Subscription) {
	t.Helper()

	user := models.User{Name: "Subscriber", Email: paypalID + "@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	plan := models.SubscriptionPlan{Name: "Plan " + paypalID, Price: 29, DurationMonths: 1, Active: true}
	require.NoError(t, db.Create(&plan).Error)

	subscription := models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: paypalID,
		PlanID:               plan.ID,
		Status:               status,
	}
	require.NoError(t, db.Create(&subscription).Error)

	return user, subscription
}

func TestWebhookMissingHeaders(t *testing.T) {
	app, db := newWebhookApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paypal",
		bytes.NewBufferString(`{"id":"WH-1","event_type":"BILLING.SUBSCRIPTION.CANCELLED"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var events int64
	db.Model(&models.WebhookEvent{}).Count(&events)
	assert.Zero(t, events, "nothing is recorded before the signature passes")
}

func TestWebhookInvalidSignatureMutatesNothing(t *testing.T) {
	app, db := newWebhookApp(t)
	Verifier = fakeVerifier{valid: false}

	_, subscription := seedSubscription(t, db, "I-TAMPER", models.SubscriptionActive)

	body := fmt.Sprintf(`{"id":"WH-2","event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"%s"}}`,
		subscription.PaypalSubscriptionID)

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var saved models.Subscription
	require.NoError(t, db.First(&saved, subscription.ID).Error)
	assert.Equal(t, models.SubscriptionActive, saved.Status)

	var events int64
	db.Model(&models.WebhookEvent{}).Count(&events)
	assert.Zero(t, events)
}

func TestWebhookSubscriptionCancelled(t *testing.T) {
	app, db := newWebhookApp(t)

	_, subscription := seedSubscription(t, db, "I-CANCEL", models.SubscriptionActive)

	body := fmt.Sprintf(`{"id":"WH-3","event_type":"BILLING.SUBSCRIPTION.CANCELLED","resource":{"id":"%s"}}`,
		subscription.PaypalSubscriptionID)

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var saved models.Subscription
	require.NoError(t, db.First(&saved, subscription.ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, saved.Status)

	var audit models.WebhookEvent
	require.NoError(t, db.Where("event_id = ?", "WH-3").First(&audit).Error)
	assert.Equal(t, models.WebhookProcessed, audit.Status)
}

func TestWebhookDuplicateDeliveryNoOp(t *testing.T) {
	app, db := newWebhookApp(t)

	_, subscription := seedSubscription(t, db, "I-DUP", models.SubscriptionActive)

	body := fmt.Sprintf(`{"id":"WH-4","event_type":"BILLING.SUBSCRIPTION.SUSPENDED","resource":{"id":"%s"}}`,
		subscription.PaypalSubscriptionID)

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Simulate the row being reactivated between deliveries; the replay
	// must not suspend it again.
	require.NoError(t, db.Model(&models.Subscription{}).
		Where("id = ?", subscription.ID).
		Update("status", models.SubscriptionActive).Error)

	resp, err = app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var saved models.Subscription
	require.NoError(t, db.First(&saved, subscription.ID).Error)
	assert.Equal(t, models.SubscriptionActive, saved.Status, "redelivered event must not be reprocessed")

	var events int64
	db.Model(&models.WebhookEvent{}).Where("event_id = ?", "WH-4").Count(&events)
	assert.EqualValues(t, 1, events)
}

func TestWebhookUnknownEventType(t *testing.T) {
	app, db := newWebhookApp(t)

	body := `{"id":"WH-5","event_type":"CUSTOMER.DISPUTE.CREATED","resource":{}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var audit models.WebhookEvent
	require.NoError(t, db.Where("event_id = ?", "WH-5").First(&audit).Error)
	assert.Equal(t, models.WebhookRejected, audit.Status)
}

func TestWebhookActivationDeactivatesPriorActive(t *testing.T) {
	app, db := newWebhookApp(t)

	user, oldSubscription := seedSubscription(t, db, "I-OLD", models.SubscriptionActive)

	plan := models.SubscriptionPlan{Name: "Yearly", Price: 199, DurationMonths: 12, Active: true}
	require.NoError(t, db.Create(&plan).Error)

	newSubscription := models.Subscription{
		UserID:               user.ID,
		PaypalSubscriptionID: "I-NEW",
		PlanID:               plan.ID,
		Status:               models.SubscriptionPending,
	}
	require.NoError(t, db.Create(&newSubscription).Error)

	body := `{"id":"WH-6","event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-NEW"}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var activated models.Subscription
	require.NoError(t, db.First(&activated, newSubscription.ID).Error)
	assert.Equal(t, models.SubscriptionActive, activated.Status)
	require.NotNil(t, activated.EndTime)
	assert.WithinDuration(t, time.Now().AddDate(0, 12, 0), *activated.EndTime, time.Minute)

	var previous models.Subscription
	require.NoError(t, db.First(&previous, oldSubscription.ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, previous.Status, "only one ACTIVE row per user")

	var savedUser models.User
	require.NoError(t, db.First(&savedUser, user.ID).Error)
	require.NotNil(t, savedUser.SubscriptionEndsAt)
}

func TestWebhookSaleCompletedExtendsSubscription(t *testing.T) {
	app, db := newWebhookApp(t)

	user, subscription := seedSubscription(t, db, "I-RENEW", models.SubscriptionActive)

	endTime := time.Now().AddDate(0, 0, 3)
	require.NoError(t, db.Model(&models.Subscription{}).
		Where("id = ?", subscription.ID).
		Update("end_time", endTime).Error)

	body := `{"id":"WH-8","event_type":"PAYMENT.SALE.COMPLETED","resource":{"id":"SALE-1","billing_agreement_id":"I-RENEW"}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var saved models.Subscription
	require.NoError(t, db.First(&saved, subscription.ID).Error)
	require.NotNil(t, saved.EndTime)
	assert.WithinDuration(t, endTime.AddDate(0, 1, 0), *saved.EndTime, time.Minute, "renewal extends from the current period end")

	var savedUser models.User
	require.NoError(t, db.First(&savedUser, user.ID).Error)
	require.NotNil(t, savedUser.SubscriptionEndsAt)
	assert.WithinDuration(t, *saved.EndTime, *savedUser.SubscriptionEndsAt, time.Second)
}

type fakeOrderProvider struct {
	captureStatus string
	captureErr    error
	captured      []string
}

func (f *fakeOrderProvider) CreateOrder(amount float64, description, returnURL, cancelURL string) (string, string, error) {
	return "", "", nil
}

func (f *fakeOrderProvider) CaptureOrder(orderID string) (string, error) {
	f.captured = append(f.captured, orderID)
	if f.captureErr != nil {
		return "", f.captureErr
	}
	return f.captureStatus, nil
}

func TestWebhookOrderApprovedCapturesAndEnrolls(t *testing.T) {
	app, db := newWebhookApp(t)

	provider := &fakeOrderProvider{captureStatus: "COMPLETED"}
	Provider = provider
	t.Cleanup(func() { Provider = nil })

	user := models.User{Name: "Absent Buyer", Email: "absent@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	course := courseModels.Course{Title: "Approved Course", Price: 59, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	payment := models.Payment{
		UserID:        user.ID,
		CourseID:      course.ID,
		Amount:        59,
		TransactionID: "ORDER-88",
		Status:        models.PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	body := `{"id":"WH-9","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORDER-88"}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"ORDER-88"}, provider.captured)

	var savedPayment models.Payment
	require.NoError(t, db.First(&savedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentCompleted, savedPayment.Status)

	var enrollments int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)
}

func TestWebhookDispatchFailureLeavesRetryOpen(t *testing.T) {
	app, db := newWebhookApp(t)

	provider := &fakeOrderProvider{captureStatus: "COMPLETED", captureErr: fmt.Errorf("provider unavailable")}
	Provider = provider
	t.Cleanup(func() { Provider = nil })

	user := models.User{Name: "Retry Buyer", Email: "retry@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	course := courseModels.Course{Title: "Retry Course", Price: 39, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	payment := models.Payment{
		UserID:        user.ID,
		CourseID:      course.ID,
		Amount:        39,
		TransactionID: "ORDER-99",
		Status:        models.PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	body := `{"id":"WH-10","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORDER-99"}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var audit models.WebhookEvent
	require.NoError(t, db.Where("event_id = ?", "WH-10").First(&audit).Error)
	assert.Equal(t, models.WebhookRejected, audit.Status)

	var savedPayment models.Payment
	require.NoError(t, db.First(&savedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentPending, savedPayment.Status)

	// Provider recovers; the redelivered event id must take the dispatch
	// path again instead of being swallowed as a duplicate.
	provider.captureErr = nil

	resp, err = app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&savedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentCompleted, savedPayment.Status)

	var enrollments int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)

	require.NoError(t, db.Where("event_id = ?", "WH-10").First(&audit).Error)
	assert.Equal(t, models.WebhookProcessed, audit.Status)

	var events int64
	db.Model(&models.WebhookEvent{}).Where("event_id = ?", "WH-10").Count(&events)
	assert.EqualValues(t, 1, events, "redelivery reuses the audit row")
}

func TestWebhookCaptureCompletedFinalizesPurchase(t *testing.T) {
	app, db := newWebhookApp(t)

	user := models.User{Name: "Buyer", Email: "buyer@example.com", Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	course := courseModels.Course{Title: "Paid Course", Price: 49, IsPublished: true}
	require.NoError(t, db.Create(&course).Error)

	payment := models.Payment{
		UserID:        user.ID,
		CourseID:      course.ID,
		Amount:        49,
		TransactionID: "ORDER-77",
		Status:        models.PaymentPending,
	}
	require.NoError(t, db.Create(&payment).Error)

	body := `{"id":"WH-7","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","supplementary_data":{"related_ids":{"order_id":"ORDER-77"}}}}`

	resp, err := app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var savedPayment models.Payment
	require.NoError(t, db.First(&savedPayment, payment.ID).Error)
	assert.Equal(t, models.PaymentCompleted, savedPayment.Status)

	var enrollments int64
	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)

	// Redelivery of the capture must not duplicate the enrollment
	resp, err = app.Test(signedRequest(body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&enrollments)
	assert.EqualValues(t, 1, enrollments)
}
