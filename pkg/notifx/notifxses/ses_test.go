package notifxses

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, f.err
}

func TestSendEmail(t *testing.T) {
	api := &fakeSES{}
	p := New(api, "noreply@propcore.app", "Propcore")

	require.NoError(t, p.SendEmail(context.Background(), notifx.Email{To: "a@b.io", Subject: "Hi", Text: "body"}))
	assert.Equal(t, "Propcore <noreply@propcore.app>", aws.ToString(api.in.Source))
	assert.Equal(t, []string{"a@b.io"}, api.in.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(api.in.Message.Subject.Data))
	assert.Nil(t, api.in.Message.Body.Html)
}

func TestSendEmail_Failure(t *testing.T) {
	p := New(&fakeSES{err: errors.New("throttled")}, "noreply@propcore.app", "")
	err := p.SendEmail(context.Background(), notifx.Email{To: "a@b.io", Subject: "Hi"})
	assert.True(t, errx.IsCode(err, notifx.ErrSendFailed))
}
