// Package notifxconsole logs notifications instead of sending them. It is
// the default in development.
package notifxconsole

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/Abraxas-365/propcore/pkg/notifx"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) SendEmail(_ context.Context, msg notifx.Email) error {
	logx.WithFields(logx.Fields{"to": msg.To, "subject": msg.Subject}).Info("notifx/console: email")
	logx.Debugf("notifx/console: email body:\n%s", msg.Text)
	return nil
}

func (p *Provider) SendSMS(_ context.Context, msg notifx.SMS) error {
	logx.WithFields(logx.Fields{"to": msg.To}).Info("notifx/console: sms")
	logx.Debugf("notifx/console: sms body: %s", msg.Body)
	return nil
}
