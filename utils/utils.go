package utils

import (
	"lms/config"

	"github.com/google/uuid"
)

// AppHost returns the public base URL used in emails and redirect links
func AppHost() string {
	return config.AppConfig.Host
}

// GenerateSecureToken returns an unguessable token for email verification
// and password reset links.
func GenerateSecureToken() string {
	return uuid.NewString()
}
