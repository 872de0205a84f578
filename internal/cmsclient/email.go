package cmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"agency-cms/internal/content"
)

// DefaultEmailTimeout bounds a call to the email function.
const DefaultEmailTimeout = 25 * time.Second

var ErrTimeout = errors.New("email function timed out")

// EmailResult is the email function's reply.
type EmailResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// EmailFunction calls the send-email function. The URL may point at this
// server or at any compatible endpoint.
type EmailFunction struct {
	client  *Client
	url     string
	timeout time.Duration
}

func NewEmailFunction(c *Client, functionURL string, timeout time.Duration) *EmailFunction {
	if timeout <= 0 {
		timeout = DefaultEmailTimeout
	}
	return &EmailFunction{client: c, url: functionURL, timeout: timeout}
}

// Test sends a test message with smtp. A timeout yields ErrTimeout; a
// delivery failure yields a result with Success false.
func (f *EmailFunction) Test(ctx context.Context, smtp content.SMTPSettings) (EmailResult, error) {
	return f.call(ctx, "test", map[string]any{"smtp": smtp})
}

// Send delivers an arbitrary message.
func (f *EmailFunction) Send(ctx context.Context, smtp content.SMTPSettings, to []string, subject, html string) (EmailResult, error) {
	return f.call(ctx, "send", map[string]any{"smtp": smtp, "to": to, "subject": subject, "html": html})
}

func (f *EmailFunction) call(ctx context.Context, action string, body any) (EmailResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	u, err := url.Parse(f.url)
	if err != nil {
		return EmailResult{}, fmt.Errorf("email function url: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	fc := *f.client
	fc.baseURL = ""
	resp, err := fc.send(ctx, http.MethodPost, u.String(), nil, body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return EmailResult{}, ErrTimeout
		}
		return EmailResult{}, err
	}
	defer resp.Body.Close()

	var res EmailResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return EmailResult{}, ErrTimeout
		}
		return EmailResult{}, fmt.Errorf("decode email function reply (%d): %w", resp.StatusCode, err)
	}
	if !res.Success && res.Error == "" {
		res.Error = http.StatusText(resp.StatusCode)
	}
	return res, nil
}
