package utils

import (
	"fmt"
	"lms/database"
	"lms/models"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeSubscriptionScheduler sets up the subscription expiry scheduler
func InitializeSubscriptionScheduler() {
	log.Println("[SUBSCRIPTION-SCHEDULER] Initializing subscription scheduler...")

	c := cron.New()

	// Run daily at 9 AM to check expiring subscriptions
	c.AddFunc("0 9 * * *", func() {
		log.Println("[SUBSCRIPTION-SCHEDULER] Running daily subscription check...")
		ProcessExpiringSubscriptions()
		ExpireSubscriptions()
	})

	c.Start()
	log.Println("[SUBSCRIPTION-SCHEDULER] Subscription scheduler started - runs daily at 9 AM")
}

// ProcessExpiringSubscriptions sends reminder emails for subscriptions expiring in 3 days
func ProcessExpiringSubscriptions() {
	db := database.Database.Db
	now := time.Now()
	threeDaysFromNow := now.AddDate(0, 0, 3)

	// Find subscriptions expiring in ~3 days that haven't received a reminder
	var expiringSubscriptions []models.Subscription
	if err := db.
		Where("status = ? AND reminder_sent = false AND end_time IS NOT NULL", models.SubscriptionActive).
		Where("end_time BETWEEN ? AND ?", now, threeDaysFromNow).
		Preload("Plan").
		Find(&expiringSubscriptions).Error; err != nil {
		log.Printf("[SUBSCRIPTION-SCHEDULER] Error fetching expiring subscriptions: %v", err)
		return
	}

	log.Printf("[SUBSCRIPTION-SCHEDULER] Found %d subscriptions expiring soon", len(expiringSubscriptions))

	for _, sub := range expiringSubscriptions {
		var user models.User
		if err := db.Where("id = ?", sub.UserID).First(&user).Error; err != nil {
			log.Printf("[SUBSCRIPTION-SCHEDULER] Error fetching user %d: %v", sub.UserID, err)
			continue
		}

		SendSubscriptionExpiryReminder(user.Email, user.Name, sub.Plan.Name, sub.EndTime)

		// Mark reminder as sent
		db.Model(&sub).Update("reminder_sent", true)
		log.Printf("[SUBSCRIPTION-SCHEDULER] Sent expiry reminder for subscription %d to %s", sub.ID, user.Email)
	}
}

// ExpireSubscriptions marks overdue ACTIVE subscriptions as EXPIRED
func ExpireSubscriptions() {
	db := database.Database.Db
	now := time.Now()

	result := db.Model(&models.Subscription{}).
		Where("status = ? AND end_time IS NOT NULL AND end_time < ?", models.SubscriptionActive, now).
		Updates(map[string]interface{}{"status": models.SubscriptionExpired})

	if result.Error != nil {
		log.Printf("[SUBSCRIPTION-SCHEDULER] Error expiring subscriptions: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("[SUBSCRIPTION-SCHEDULER] Expired %d subscriptions", result.RowsAffected)

		// Send expiry notification emails for the rows flipped just now
		var expiredSubscriptions []models.Subscription
		db.Where("status = ? AND end_time IS NOT NULL AND end_time < ?", models.SubscriptionExpired, now).
			Where("updated_at > ?", now.Add(-time.Hour)).
			Preload("Plan").
			Find(&expiredSubscriptions)

		for _, sub := range expiredSubscriptions {
			var user models.User
			if err := db.Where("id = ?", sub.UserID).First(&user).Error; err == nil {
				SendSubscriptionExpiredEmail(user.Email, user.Name, sub.Plan.Name)
			}
		}
	}
}

// SendSubscriptionExpiryReminder sends an email reminder before a subscription expires
func SendSubscriptionExpiryReminder(email, name, planName string, endTime *time.Time) {
	expiryStr := "soon"
	if endTime != nil {
		expiryStr = endTime.Format("January 2, 2006")
	}

	subject := "Your NovaLearn Subscription is Expiring Soon!"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your subscription to the <strong>%s</strong> plan is expiring on <strong>%s</strong>.</p>
		<p>To keep unlimited access to the full course catalog, please renew before it expires.</p>
		<a href="%s/subscriptions" class="btn">Renew Now</a>
	`, name, planName, expiryStr, AppHost())

	go SendEmail(email, subject, getEmailTemplate("Subscription Expiring Soon", body))
}

// SendSubscriptionExpiredEmail sends an email when a subscription has expired
func SendSubscriptionExpiredEmail(email, name, planName string) {
	subject := "Your NovaLearn Subscription Has Expired"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your subscription to the <strong>%s</strong> plan has expired.</p>
		<p>Your course progress and achievements are safe, but catalog access is paused until you renew.</p>
		<a href="%s/subscriptions" class="btn">Renew Subscription</a>
	`, name, planName, AppHost())

	go SendEmail(email, subject, getEmailTemplate("Subscription Expired", body))
}
