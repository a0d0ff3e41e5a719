package invitation

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type Repository interface {
	Create(ctx context.Context, inv *Invite) error
	FindByToken(ctx context.Context, token string) (*Invite, error)
	FindByID(ctx context.Context, id kernel.InviteID) (*Invite, error)
	// LockContact serializes invite creation for a contact in an organization
	// until the surrounding unit of work ends.
	LockContact(ctx context.Context, orgPK kernel.OrganizationPK, email, phone *string) error
	// ExistsPending reports an unaccepted, unexpired invite for the contact
	// in the organization.
	ExistsPending(ctx context.Context, orgPK kernel.OrganizationPK, email, phone *string, now time.Time) (bool, error)
	ListPending(ctx context.Context, orgPK kernel.OrganizationPK, now time.Time) ([]*Invite, error)
	// MarkAccepted only updates an invite that is still unaccepted and
	// fails with ErrAlreadyAccepted otherwise.
	MarkAccepted(ctx context.Context, pk kernel.InvitePK, by kernel.UserPK, at time.Time) error
	// Delete removes an unaccepted invite.
	Delete(ctx context.Context, pk kernel.InvitePK) error
	CountExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

// Event is published after an invite is persisted. It carries everything
// delivery needs so handlers never touch the store.
type Event struct {
	InviteID         kernel.InviteID `json:"inviteId"`
	Token            string          `json:"token"`
	Role             kernel.UserType `json:"role"`
	OrganizationName string          `json:"organizationName"`
	PropertyName     string          `json:"propertyName,omitempty"`
	InviterName      string          `json:"inviterName"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	SendEmail        bool            `json:"sendEmail"`
	SendSMS          bool            `json:"sendSms"`
	ExpiresAt        time.Time       `json:"expiresAt"`
}

const EventCreated = "invite.created"

// Publisher hands an event to delivery. Failures must not affect the
// caller's outcome.
type Publisher interface {
	PublishInviteCreated(ctx context.Context, ev Event) error
}
