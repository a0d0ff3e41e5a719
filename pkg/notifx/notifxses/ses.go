package notifxses

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// API is the part of the SES client the provider uses.
type API interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Provider struct {
	client API
	source string
}

// New sends from "name <address>" when name is set.
func New(client API, fromAddress, fromName string) *Provider {
	source := fromAddress
	if fromName != "" {
		source = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}
	return &Provider{client: client, source: source}
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (p *Provider) SendEmail(ctx context.Context, msg notifx.Email) error {
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = utf8(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = utf8(msg.HTML)
	}

	_, err := p.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(p.source),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message:     &types.Message{Subject: utf8(msg.Subject), Body: body},
	})
	if err != nil {
		return notifx.ErrRegistry.NewWithCause(notifx.ErrSendFailed, err).
			WithDetail("provider", "ses").
			WithDetail("subject", msg.Subject)
	}
	return nil
}
