package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers push notifications. Failures are logged by callers and
// never abort a health check run.
type Notifier interface {
	Notify(ctx context.Context, message, title string) error
}

// PushoverNotifier posts messages through the Pushover API.
type PushoverNotifier struct {
	token   string
	user    string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewPushoverNotifier constructs a Pushover notifier.
func NewPushoverNotifier(token, user, baseURL string, timeout time.Duration, logger zerolog.Logger) *PushoverNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.pushover.net"
	}

	return &PushoverNotifier{
		token:   token,
		user:    user,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "alert_pushover").Logger(),
	}
}

// Notify sends one message. High priority; Pushover reports success with
// HTTP 2xx and a body status of 1.
func (n *PushoverNotifier) Notify(ctx context.Context, message, title string) error {
	if n.token == "" || n.user == "" {
		return fmt.Errorf("missing pushover credentials")
	}

	form := url.Values{}
	form.Set("token", n.token)
	form.Set("user", n.user)
	form.Set("message", message)
	form.Set("title", title)
	form.Set("priority", "1")

	endpoint := n.baseURL + "/1/messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		result.Status = -1
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || result.Status != 1 {
		if len(result.Errors) > 0 {
			return fmt.Errorf("pushover rejected message (%d): %s", resp.StatusCode, strings.Join(result.Errors, "; "))
		}
		return fmt.Errorf("pushover rejected message (%d)", resp.StatusCode)
	}

	n.logger.Info().Str("title", title).Msg("notification sent")
	return nil
}

var _ Notifier = (*PushoverNotifier)(nil)
