package paymentRoutes

import (
	controllers "lms/controllers/payment"
	"lms/middleware"
	validators "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up purchase and webhook routes. The webhook
// endpoint is unauthenticated; its requests are authenticated by provider
// signature instead.
func SetupPaymentRoutes(app *fiber.App) {
	paymentGroup := app.Group("/api/payments")

	paymentGroup.Post("/create-order", middleware.JWTMiddleware, validators.CreateOrder(), controllers.CreateOrder)
	paymentGroup.Post("/capture-order", middleware.JWTMiddleware, validators.CaptureOrder(), controllers.CaptureOrder)
	paymentGroup.Get("/history", middleware.JWTMiddleware, controllers.PaymentHistory)

	app.Post("/api/webhooks/paypal", controllers.HandleWebhook)
}
