package botnotify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/recuerdame/webapp/internal/pkg/env"
)

const requestTimeout = 5 * time.Second

// Notifier posts fire-and-forget notifications to the WhatsApp bot service.
// All delivery errors are swallowed: the bot learning late (or never) must
// not fail the operation that triggered the notification. When URL or secret
// is not configured every call is a silent no-op.
type Notifier struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewNotifierFromEnv reads BOT_WEBHOOK_URL and BOT_WEBHOOK_SECRET.
func NewNotifierFromEnv() *Notifier {
	return NewNotifier(
		env.GetEnv("BOT_WEBHOOK_URL", ""),
		env.GetEnv("BOT_WEBHOOK_SECRET", ""),
	)
}

func NewNotifier(baseURL, secret string) *Notifier {
	return &Notifier{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secret:     strings.TrimSpace(secret),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Enabled reports whether notifications are configured.
func (n *Notifier) Enabled() bool {
	return n.baseURL != "" && n.secret != ""
}

// NotifyLinked tells the bot a chat identity was claimed by a web account.
func (n *Notifier) NotifyLinked(ctx context.Context, chatID, username, ip string) {
	n.post(ctx, "/webhook/linked", map[string]string{
		"chatId":   chatID,
		"username": username,
		"ip":       ip,
	})
}

// NotifySubscriptionActivated tells the bot a user's subscription went active.
func (n *Notifier) NotifySubscriptionActivated(ctx context.Context, userPublicID string) {
	n.post(ctx, "/webhook/subscription-activated", map[string]string{
		"userId": userPublicID,
	})
}

func (n *Notifier) post(ctx context.Context, path string, body map[string]string) {
	if !n.Enabled() {
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-secret", n.secret)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("[BotNotify] %s delivery failed: %v", path, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[BotNotify] %s delivery returned status %d", path, resp.StatusCode)
	}
}
