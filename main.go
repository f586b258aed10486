package main

import (
	"lms/config"
	courseController "lms/controllers/course"
	paymentController "lms/controllers/payment"
	subscriptionController "lms/controllers/subscription"
	"lms/database"
	achievementRoutes "lms/routers/achievementRoutes"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	subscriptionRoutes "lms/routers/subscriptionRoutes"
	userRoutes "lms/routers/userRoutes"
	"lms/services/paypal"
	"lms/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// Shared PayPal client; every controller slice points at the same
	// token cache.
	paypal.Default = paypal.NewClient(
		config.AppConfig.PaypalBaseURL,
		config.AppConfig.PaypalClientID,
		config.AppConfig.PaypalSecret,
		config.AppConfig.PaypalWebhookID,
		time.Duration(config.AppConfig.TokenSafetyMarginSec)*time.Second,
	)
	courseController.Catalog = paypal.Default
	paymentController.Provider = paypal.Default
	paymentController.Verifier = paypal.Default
	subscriptionController.Provider = paypal.Default

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	userRoutes.SetupUserRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app)
	subscriptionRoutes.SetupSubscriptionRoutes(app)
	achievementRoutes.SetupAchievementRoutes(app)

	utils.InitializeSubscriptionScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
