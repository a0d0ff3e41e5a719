package notifx

import (
	"context"
	"testing"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	emails []Email
	sms    []SMS
}

func (c *captured) SendEmail(_ context.Context, msg Email) error {
	c.emails = append(c.emails, msg)
	return nil
}

func (c *captured) SendSMS(_ context.Context, msg SMS) error {
	c.sms = append(c.sms, msg)
	return nil
}

func TestClient_Email(t *testing.T) {
	sink := &captured{}
	c := NewClient(sink, sink, nil)
	require.NoError(t, c.Templates().RegisterEmail("hello", EmailTemplate{
		Subject: "Hi {{.Name}}",
		Text:    "Welcome {{.Name}}",
		HTML:    "<p>Welcome {{.Name}}</p>",
	}))

	require.NoError(t, c.Email(context.Background(), "a@b.io", "hello", map[string]string{"Name": "<Ann>"}))
	require.Len(t, sink.emails, 1)
	msg := sink.emails[0]
	assert.Equal(t, "a@b.io", msg.To)
	assert.Equal(t, "Hi <Ann>", msg.Subject)
	assert.Equal(t, "Welcome <Ann>", msg.Text)
	assert.Equal(t, "<p>Welcome &lt;Ann&gt;</p>", msg.HTML)
}

func TestClient_SMS(t *testing.T) {
	sink := &captured{}
	c := NewClient(nil, sink, nil)
	require.NoError(t, c.Templates().RegisterSMS("code", "  Your code is {{.}}  "))

	require.NoError(t, c.SMS(context.Background(), "+15550001", "code", "1234"))
	require.Len(t, sink.sms, 1)
	assert.Equal(t, "Your code is 1234", sink.sms[0].Body)

	err := c.Email(context.Background(), "a@b.io", "code", nil)
	assert.True(t, errx.IsCode(err, ErrNoProvider))
}

func TestClient_Errors(t *testing.T) {
	sink := &captured{}
	c := NewClient(sink, sink, nil)

	assert.True(t, errx.IsCode(c.Email(context.Background(), "a@b.io", "missing", nil), ErrTemplateNotFound))
	assert.True(t, errx.IsCode(c.Email(context.Background(), "nobody", "missing", nil), ErrInvalidMessage))
	assert.True(t, errx.IsCode(c.Templates().RegisterSMS("bad", "{{"), ErrTemplateParse))
}
