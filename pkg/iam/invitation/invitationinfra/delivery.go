package invitationinfra

import (
	"context"
	"net/url"
	"strings"

	"github.com/Abraxas-365/propcore/pkg/asyncx"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/jobx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/Abraxas-365/propcore/pkg/notifx"
)

const inviteTemplate = "invite"

var inviteEmail = notifx.EmailTemplate{
	Subject: `{{.InviterName}} invited you to {{.OrganizationName}}`,
	Text: `Hello,

{{.InviterName}} invited you to join {{.OrganizationName}} as {{.RoleLabel}}{{if .PropertyName}} at {{.PropertyName}}{{end}}.

Accept the invitation: {{.Link}}

The link expires on {{.Expires}}.
`,
	HTML: `<p>Hello,</p>
<p>{{.InviterName}} invited you to join <strong>{{.OrganizationName}}</strong> as {{.RoleLabel}}{{if .PropertyName}} at {{.PropertyName}}{{end}}.</p>
<p><a href="{{.Link}}">Accept the invitation</a></p>
<p>The link expires on {{.Expires}}.</p>
`,
}

const inviteSMS = `{{.InviterName}} invited you to {{.OrganizationName}}{{if .PropertyName}} ({{.PropertyName}}){{end}}. Accept: {{.Link}}`

type inviteView struct {
	OrganizationName string
	PropertyName     string
	InviterName      string
	RoleLabel        string
	Link             string
	Expires          string
}

func roleLabel(t kernel.UserType) string {
	switch t {
	case kernel.UserTypeOrgAdmin:
		return "an administrator"
	case kernel.UserTypeStaff:
		return "maintenance staff"
	case kernel.UserTypeTenant:
		return "a tenant"
	default:
		return "a member"
	}
}

// DeliveryHandler turns invite events into e-mail and SMS.
type DeliveryHandler struct {
	notifier  *notifx.Client
	acceptURL string
}

func NewDeliveryHandler(notifier *notifx.Client, acceptURL string) (*DeliveryHandler, error) {
	t := notifier.Templates()
	if err := t.RegisterEmail(inviteTemplate, inviteEmail); err != nil {
		return nil, err
	}
	if err := t.RegisterSMS(inviteTemplate, inviteSMS); err != nil {
		return nil, err
	}
	return &DeliveryHandler{notifier: notifier, acceptURL: strings.TrimRight(acceptURL, "/")}, nil
}

func (h *DeliveryHandler) link(token string) string {
	return h.acceptURL + "/" + url.PathEscape(token)
}

// Deliver sends on every channel the event asks for.
func (h *DeliveryHandler) Deliver(ctx context.Context, ev invitation.Event) error {
	inviter := ev.InviterName
	if inviter == "" {
		inviter = ev.OrganizationName
	}
	view := inviteView{
		OrganizationName: ev.OrganizationName,
		PropertyName:     ev.PropertyName,
		InviterName:      inviter,
		RoleLabel:        roleLabel(ev.Role),
		Link:             h.link(ev.Token),
		Expires:          ev.ExpiresAt.UTC().Format("Jan 2, 2006 15:04 MST"),
	}

	var sends []func(context.Context) error
	if ev.SendEmail && ev.Email != "" {
		sends = append(sends, func(ctx context.Context) error {
			return h.notifier.Email(ctx, ev.Email, inviteTemplate, view)
		})
	}
	if ev.SendSMS && ev.Phone != "" {
		sends = append(sends, func(ctx context.Context) error {
			return h.notifier.SMS(ctx, ev.Phone, inviteTemplate, view)
		})
	}
	if err := asyncx.All(ctx, sends...); err != nil {
		return err
	}

	logx.WithFields(logx.Fields{"invite_id": ev.InviteID, "channels": len(sends)}).Info("invite delivered")
	return nil
}

// Handle is the jobx handler for invitation.EventCreated.
func (h *DeliveryHandler) Handle(ctx context.Context, job *jobx.Job) error {
	var ev invitation.Event
	if err := job.Decode(&ev); err != nil {
		return err
	}
	return h.Deliver(ctx, ev)
}
