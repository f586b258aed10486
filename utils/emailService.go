package utils

import (
	"fmt"
	"lms/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Generic Send Email
func SendEmail(to string, subject string, htmlBody string) error {
	if config.AppConfig == nil || config.AppConfig.SendGridApiKey == "" {
		fmt.Println("SENDGRID_API_KEY not set, skipping email to", to)
		return nil
	}

	from := mail.NewEmail("NovaLearn", config.AppConfig.EmailSender)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)

	// Debug Logs
	fmt.Printf("--- Sending Email ---\nTo: %s\nSubject: %s\n", to, subject)

	response, err := client.Send(message)
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	if response.StatusCode >= 400 {
		fmt.Printf("Email rejected with status %d: %s\n", response.StatusCode, response.Body)
		return fmt.Errorf("email rejected with status %d", response.StatusCode)
	}
	fmt.Println("--- Email Sent Successfully ---")
	return nil
}

// HTML Wrapper (Professional Look)
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A1A4D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A1A4D; line-height: 1.6; }
			.content h2 { color: #1A1A4D; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #6D5BD7; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #6D5BD7; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>NOVALEARN</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 NovaLearn. All rights reserved.<br>
				Keep learning, keep growing.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// --- Triggers ---

// 1. Welcome / Signup (with email verification link)
func SendWelcomeEmail(email, name, verificationToken string) {
	verifyLink := fmt.Sprintf("%s/api/auth/verify-email?token=%s", config.AppConfig.Host, verificationToken)

	subject := "Welcome to NovaLearn"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Welcome to <strong>NovaLearn</strong>! We are thrilled to have you onboard.</p>
		<p>Please verify your email address to activate your account:</p>
		<a href="%s" class="btn">Verify Email</a>
		<p>If you did not create this account, you can safely ignore this email.</p>
	`, name, verifyLink)

	go SendEmail(email, subject, getEmailTemplate("Welcome Onboard!", body))
}

// 2. Password Reset
func SendPasswordResetEmail(email, name, resetToken string) {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.AppConfig.Host, resetToken)

	subject := "Reset Your NovaLearn Password"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We received a request to reset your password.</p>
		<a href="%s" class="btn">Reset Password</a>
		<p>This link expires in 1 hour. If you did not request a reset, please ignore this email.</p>
	`, name, resetLink)

	go SendEmail(email, subject, getEmailTemplate("Password Reset Requested", body))
}

// 3. Course Purchase Confirmation
func SendPurchaseConfirmationEmail(email, name, courseTitle string, amount float64) {
	subject := "Purchase Confirmed: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your payment of <strong>$%.2f</strong> for <strong>%s</strong> was successful.</p>
		<p>The course is now unlocked on your dashboard. Happy learning!</p>
		<div class="info-box">
			<strong>Next Steps:</strong> Head to your dashboard and start with the first lesson.
		</div>
	`, name, amount, courseTitle)

	fmt.Println("Triggering Purchase Email for:", email)
	go SendEmail(email, subject, getEmailTemplate("Purchase Successful", body))
}

// 4. Subscription Confirmation
func SendSubscriptionEmail(email, name, planName string) {
	subject := "Subscription Confirmed: " + planName
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You have successfully subscribed to the <strong>%s</strong> plan.</p>
		<p>You now have unlimited access to every course in our catalog.</p>
		<div class="info-box">
			<strong>Next Steps:</strong> Browse the catalog and pick your next course.
		</div>
	`, name, planName)

	go SendEmail(email, subject, getEmailTemplate("Subscription Successful", body))
}

// 5. Achievement Unlocked
func SendAchievementEmail(email, name, achievementName, description string) {
	subject := "Achievement Unlocked: " + achievementName
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations! You just earned the <strong>%s</strong> achievement.</p>
		<div class="info-box">
			%s
		</div>
		<p>Keep up the great work. Your next achievement is waiting!</p>
	`, name, achievementName, description)

	go SendEmail(email, subject, getEmailTemplate("Achievement Unlocked!", body))
}

// 6. Login Notification
func SendLoginNotificationEmail(email, name, ip, device, timeStr string) {
	subject := "New Login Alert"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We noticed a new login to your account.</p>
		<div class="info-box" style="background: #FFFFFF; border: 1px solid #E0E0E0; border-left: 4px solid #6D5BD7;">
			<ul style="list-style: none; padding: 0; margin: 0;">
				<li style="margin-bottom: 8px;"><strong>Time:</strong> %s</li>
				<li style="margin-bottom: 8px;"><strong>IP Address:</strong> %s</li>
				<li><strong>Device:</strong> %s</li>
			</ul>
		</div>
		<p>If this was you, you can safely ignore this email.</p>
		<p style="color: #DC3545; font-weight: bold;">If you did not authorize this login, please reset your password immediately.</p>
	`, name, timeStr, ip, device)

	go SendEmail(email, subject, getEmailTemplate("New Login Detected", body))
}

// 7. Course Completed
func SendCourseCompletedEmail(email, name, courseTitle string) {
	subject := "Course Completed: " + courseTitle
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You finished <strong>%s</strong>. Every lesson, done!</p>
		<p>Check your profile for any achievements you unlocked along the way.</p>
	`, name, courseTitle)

	go SendEmail(email, subject, getEmailTemplate("Course Completed!", body))
}
