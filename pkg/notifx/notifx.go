// Package notifx sends templated e-mail and SMS through pluggable
// providers.
package notifx

import (
	"context"
	"strings"

	"github.com/Abraxas-365/propcore/pkg/errx"
)

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type SMS struct {
	// To is an E.164 phone number.
	To   string
	Body string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg Email) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, msg SMS) error
}

// Client renders registered templates and hands the result to the
// configured providers.
type Client struct {
	email     EmailSender
	sms       SMSSender
	templates *Templates
}

func NewClient(email EmailSender, sms SMSSender, templates *Templates) *Client {
	if templates == nil {
		templates = NewTemplates()
	}
	return &Client{email: email, sms: sms, templates: templates}
}

func (c *Client) Templates() *Templates { return c.templates }

// Email renders template name with data and sends it to one address.
func (c *Client) Email(ctx context.Context, to, name string, data any) error {
	if c.email == nil {
		return ErrRegistry.New(ErrNoProvider).WithDetail("channel", "email")
	}
	if !strings.Contains(to, "@") {
		return ErrRegistry.New(ErrInvalidMessage).WithDetail("reason", "invalid recipient")
	}
	msg, err := c.templates.RenderEmail(name, data)
	if err != nil {
		return err
	}
	msg.To = to
	return c.email.SendEmail(ctx, msg)
}

// SMS renders template name with data and sends it to one number.
func (c *Client) SMS(ctx context.Context, to, name string, data any) error {
	if c.sms == nil {
		return ErrRegistry.New(ErrNoProvider).WithDetail("channel", "sms")
	}
	if strings.TrimSpace(to) == "" {
		return ErrRegistry.New(ErrInvalidMessage).WithDetail("reason", "no recipient")
	}
	body, err := c.templates.RenderSMS(name, data)
	if err != nil {
		return err
	}
	return c.sms.SendSMS(ctx, SMS{To: to, Body: body})
}

var ErrRegistry = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed       = ErrRegistry.Register("SEND_FAILED", errx.TypeExternal, 0, "Failed to send notification")
	ErrInvalidMessage   = ErrRegistry.Register("INVALID_MESSAGE", errx.TypeValidation, 0, "Invalid notification")
	ErrTemplateNotFound = ErrRegistry.Register("TEMPLATE_NOT_FOUND", errx.TypeInternal, 0, "Notification template not found")
	ErrTemplateParse    = ErrRegistry.Register("TEMPLATE_PARSE", errx.TypeInternal, 0, "Failed to parse notification template")
	ErrTemplateRender   = ErrRegistry.Register("TEMPLATE_RENDER", errx.TypeInternal, 0, "Failed to render notification template")
	ErrNoProvider       = ErrRegistry.Register("NO_PROVIDER", errx.TypeInternal, 0, "No provider configured for this channel")
)
