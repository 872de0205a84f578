package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net/mail"
	"strings"

	"agency-cms/internal/content"
)

// ContactTemplateType selects the template used for contact form mail.
const ContactTemplateType = "contact_form"

var ErrInvalidForm = errors.New("invalid contact form")

// ContactForm is a public contact form submission.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Validate returns the names of invalid fields.
func (f ContactForm) Validate() []string {
	var bad []string
	if strings.TrimSpace(f.Name) == "" {
		bad = append(bad, "name")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil {
		bad = append(bad, "email")
	}
	if strings.TrimSpace(f.Message) == "" {
		bad = append(bad, "message")
	}
	return bad
}

// Lister reads rows of one table.
type Lister[R any] interface {
	List(ctx context.Context, scope content.Scope) ([]R, error)
}

// ContactService renders the active contact template and delivers it to the
// active recipients.
type ContactService struct {
	SMTP       Lister[content.SMTPSettings]
	Templates  Lister[content.EmailTemplate]
	Recipients Lister[content.EmailRecipient]
	Sender     Sender
}

const fallbackSubject = "New contact from {{name}}"

const fallbackBody = `<p><strong>Name:</strong> {{name}}</p>
<p><strong>Email:</strong> {{email}}</p>
<p><strong>Phone:</strong> {{phone}}</p>
<p><strong>Company:</strong> {{company}}</p>
<p>{{message}}</p>`

// Submit validates and delivers one contact form.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) error {
	if bad := form.Validate(); len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(bad, ", "))
	}

	smtp, err := first(ctx, s.SMTP, content.Scope{VisibleOnly: true})
	if err != nil {
		return err
	}
	if smtp == nil {
		return ErrNotConfigured
	}

	recipients, err := s.Recipients.List(ctx, content.Scope{VisibleOnly: true})
	if err != nil {
		return fmt.Errorf("load recipients: %w", err)
	}
	var to []string
	for _, r := range recipients {
		if r.Email != "" {
			to = append(to, r.Email)
		}
	}
	if len(to) == 0 {
		return ErrNoRecipients
	}

	subject, body := fallbackSubject, fallbackBody
	scope := content.Where("template_type", ContactTemplateType)
	scope.VisibleOnly = true
	tmpl, err := first(ctx, s.Templates, scope)
	if err != nil {
		log.Printf("WARN: contact template unavailable, using built-in: %v", err)
	} else if tmpl != nil {
		subject, body = tmpl.Subject, tmpl.BodyHTML
	}

	msg := Message{
		To:      to,
		Subject: Render(subject, form, false),
		HTML:    Render(body, form, true),
	}
	return s.Sender.Send(ctx, *smtp, msg)
}

// Render substitutes {{field}} placeholders with form values. Values are
// HTML-escaped when escape is set.
func Render(tmpl string, f ContactForm, escape bool) string {
	esc := func(s string) string {
		s = strings.TrimSpace(s)
		if escape {
			return html.EscapeString(s)
		}
		return s
	}
	return strings.NewReplacer(
		"{{name}}", esc(f.Name),
		"{{email}}", esc(f.Email),
		"{{phone}}", esc(f.Phone),
		"{{company}}", esc(f.Company),
		"{{message}}", esc(f.Message),
	).Replace(tmpl)
}

func first[R any](ctx context.Context, l Lister[R], scope content.Scope) (*R, error) {
	rows, err := l.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
