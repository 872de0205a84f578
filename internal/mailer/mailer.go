// Package mailer delivers email through SMTP settings stored in the CMS.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/k3a/html2text"
	"github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"agency-cms/internal/content"
)

var (
	ErrNotConfigured = errors.New("smtp settings are incomplete")
	ErrNoRecipients  = errors.New("no recipients")
)

// Message is one outgoing email. Text is derived from HTML when empty.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// PlainText returns the text body, converting HTML if needed.
func (m Message) PlainText() string {
	if m.Text != "" {
		return m.Text
	}
	return strings.TrimSpace(html2text.HTML2Text(m.HTML))
}

// Sender delivers a message with the given SMTP settings.
type Sender interface {
	Send(ctx context.Context, smtp content.SMTPSettings, msg Message) error
}

// ShoutrrrSender sends through a shoutrrr SMTP service URL.
type ShoutrrrSender struct {
	Timeout time.Duration
}

func NewShoutrrrSender(timeout time.Duration) *ShoutrrrSender {
	return &ShoutrrrSender{Timeout: timeout}
}

func (s *ShoutrrrSender) Send(ctx context.Context, smtp content.SMTPSettings, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	u, err := SMTPURL(smtp, msg)
	if err != nil {
		return err
	}

	sender, err := shoutrrr.CreateSender(u)
	if err != nil {
		return fmt.Errorf("create smtp sender: %s", redact(err.Error(), smtp.Password))
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	if s.Timeout > 0 {
		sender.Timeout = s.Timeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && (sender.Timeout == 0 || left < sender.Timeout) {
			sender.Timeout = left
		}
	}

	params := stypes.Params{}
	params.SetTitle(msg.Subject)

	body := msg.PlainText()
	if msg.HTML != "" {
		body = msg.HTML
	}
	for _, e := range sender.Send(body, &params) {
		if e != nil {
			return fmt.Errorf("send email: %s", redact(e.Error(), smtp.Password))
		}
	}
	return nil
}

// SMTPURL builds the shoutrrr service URL for settings and message.
func SMTPURL(smtp content.SMTPSettings, msg Message) (string, error) {
	if smtp.Host == "" || smtp.FromEmail == "" {
		return "", ErrNotConfigured
	}
	port := smtp.Port
	if port == 0 {
		port = 587
	}

	u := url.URL{
		Scheme: "smtp",
		Host:   smtp.Host + ":" + strconv.Itoa(port),
		Path:   "/",
	}
	if smtp.Username != "" {
		u.User = url.UserPassword(smtp.Username, smtp.Password)
	}

	q := url.Values{}
	q.Set("from", smtp.FromEmail)
	if smtp.FromName != "" {
		q.Set("fromname", smtp.FromName)
	}
	q.Set("to", strings.Join(msg.To, ","))
	q.Set("subject", msg.Subject)
	if msg.HTML != "" {
		q.Set("usehtml", "yes")
	}
	switch {
	case !smtp.UseTLS:
		q.Set("encryption", "None")
		q.Set("usestarttls", "no")
	case port == 465:
		q.Set("encryption", "ImplicitTLS")
	default:
		q.Set("encryption", "ExplicitTLS")
	}
	if smtp.Username == "" {
		q.Set("auth", "None")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(secret), "***")
	return strings.ReplaceAll(s, secret, "***")
}
