package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBName    string
	JWTKey    string
	SaltRound int

	EmailSender    string
	SendGridApiKey string

	Host string // Public base URL, used in email links and PayPal return URLs

	PaypalBaseURL        string // PayPal REST API base URL (sandbox or live)
	PaypalClientID       string
	PaypalSecret         string
	PaypalWebhookID      string // Registered webhook id, required for signature verification
	TokenSafetyMarginSec int    // Seconds subtracted from token expiry before forcing refresh
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		DBName:    getEnv("DB_NAME", "lms"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@novalearn.io"),
		SendGridApiKey: getEnv("SENDGRID_API_KEY", ""),

		Host: getEnv("HOST", "http://localhost:3000"),

		PaypalBaseURL:        getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PaypalClientID:       getEnv("PAYPAL_CLIENT_ID", ""),
		PaypalSecret:         getEnv("PAYPAL_SECRET", ""),
		PaypalWebhookID:      getEnv("PAYPAL_WEBHOOK_ID", ""),
		TokenSafetyMarginSec: getEnvInt("PAYPAL_TOKEN_SAFETY_MARGIN", 60),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaypalClientID == "" || AppConfig.PaypalSecret == "" {
		log.Println("Warning: PayPal credentials are not configured. Payment features will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
