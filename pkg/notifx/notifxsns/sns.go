// Package notifxsns sends transactional SMS through Amazon SNS.
package notifxsns

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type API interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Provider struct {
	client   API
	senderID string
}

func New(client API, senderID string) *Provider {
	return &Provider{client: client, senderID: senderID}
}

func (p *Provider) SendSMS(ctx context.Context, msg notifx.SMS) error {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if p.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(p.senderID)}
	}

	_, err := p.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(msg.To),
		Message:           aws.String(msg.Body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return notifx.ErrRegistry.NewWithCause(notifx.ErrSendFailed, err).WithDetail("provider", "sns")
	}
	return nil
}
