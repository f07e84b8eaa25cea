package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// PushoverNotifier implements Notifier by posting to the Pushover messages API.
type PushoverNotifier struct {
	endpoint string
	token    string
	user     string
	client   *http.Client
}

// NewPushoverNotifier creates a notifier. A nil client gets a 10s timeout client.
func NewPushoverNotifier(endpoint, token, user string, client *http.Client) *PushoverNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PushoverNotifier{
		endpoint: endpoint,
		token:    token,
		user:     user,
		client:   client,
	}
}

// Notify sends message as a form-encoded POST. The response body is not read.
func (n *PushoverNotifier) Notify(ctx context.Context, message string) error {
	form := url.Values{
		"token":   {n.token},
		"user":    {n.user},
		"message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushover returned status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.Notifier = (*PushoverNotifier)(nil)
