// workers/notify_worker.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"racquet-league-system/models"
	"racquet-league-system/utils"

	"gorm.io/gorm"
)

// maxAttempts bounds delivery retries per notification; after that the row is
// marked sent with the last error kept for inspection.
const maxAttempts = 3

// NotifyClient delivers queued tournament announcements to the chain's mail
// service. Delivery is fire-and-forget: failures are logged, never surfaced to
// the request that queued the notification.
type NotifyClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewNotifyClient(db *gorm.DB) *NotifyClient {
	baseURL := os.Getenv("MAIL_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("MAIL_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("LEAGUE_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("LEAGUE_SERVICE_TOKEN environment variable is required for mail delivery")
	}

	return &NotifyClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

// SendEmail posts one message to the mail service.
func (c *NotifyClient) SendEmail(ctx context.Context, n *models.Notification) error {
	payload := map[string]string{
		"to":      n.Email,
		"subject": n.Subject,
		"body":    n.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/v1/mail", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mail service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// drainOnce sends every pending notification and updates its row.
func (c *NotifyClient) drainOnce(ctx context.Context) {
	var pending []models.Notification
	err := c.DB.Where("sent = ? AND attempts < ?", false, maxAttempts).
		Order("created_at ASC").
		Limit(100).
		Find(&pending).Error
	if err != nil {
		log.Printf("[Notify] DB error fetching pending notifications: %v", err)
		return
	}

	for i := range pending {
		n := &pending[i]
		err := c.SendEmail(ctx, n)
		now := time.Now()
		updates := map[string]interface{}{
			"attempts": n.Attempts + 1,
		}
		if err != nil {
			updates["last_error"] = err.Error()
			log.Printf("[Notify] Delivery failed for %s (attempt %d): %v", n.Email, n.Attempts+1, err)
		} else {
			updates["sent"] = true
			updates["sent_at"] = &now
			updates["last_error"] = ""
		}
		if dbErr := c.DB.Model(n).Updates(updates).Error; dbErr != nil {
			log.Printf("[Notify] Failed to update notification %s: %v", n.ID, dbErr)
		}
	}
}

// PollNotifications drains the queue on an interval until ctx is cancelled.
func PollNotifications(ctx context.Context, c *NotifyClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Notify] Dispatcher running (every %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Notify] Dispatcher stopping")
			return
		case <-ticker.C:
			c.drainOnce(ctx)
		}
	}
}
