package invitation

import (
	"time"

	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

// Invite is a single-use, time-limited offer of a role in an organization.
type Invite struct {
	PK              kernel.InvitePK         `db:"id" json:"-"`
	ID              kernel.InviteID         `db:"public_id"`
	Token           string                  `db:"token" json:"-"`
	Role            kernel.UserType         `db:"role"`
	OrganizationPK  kernel.OrganizationPK   `db:"organization_id" json:"-"`
	PropertyPK      *kernel.PropertyPK      `db:"property_id" json:"-"`
	MaintenanceRole *kernel.MaintenanceRole `db:"maintenance_role"`
	UnitNumber      *string                 `db:"unit_number"`
	Email           *string                 `db:"email"`
	Phone           *string                 `db:"phone"`
	InvitedBy       kernel.UserPK           `db:"invited_by" json:"-"`
	ExpiresAt       time.Time               `db:"expires_at"`
	AcceptedAt      *time.Time              `db:"accepted_at"`
	AcceptedBy      *kernel.UserPK          `db:"accepted_by" json:"-"`
	CreatedAt       time.Time               `db:"created_at"`
}

func (i *Invite) IsAccepted() bool { return i.AcceptedAt != nil }

func (i *Invite) IsExpired(now time.Time) bool { return !now.Before(i.ExpiresAt) }

func (i *Invite) IsPending(now time.Time) bool { return !i.IsAccepted() && !i.IsExpired(now) }

// CheckUsable reports why an invite cannot be accepted. Acceptance is
// checked before expiry.
func (i *Invite) CheckUsable(now time.Time) error {
	if i.IsAccepted() {
		return ErrRegistry.New(ErrAlreadyAccepted)
	}
	if i.IsExpired(now) {
		return ErrRegistry.New(ErrExpired).WithDetail("expired_at", i.ExpiresAt)
	}
	return nil
}

type DTO struct {
	ID              kernel.InviteID         `json:"id"`
	Role            kernel.UserType         `json:"role"`
	Organization    org.OrganizationDTO     `json:"organization"`
	Property        *org.PropertyDTO        `json:"property,omitempty"`
	MaintenanceRole *kernel.MaintenanceRole `json:"maintenanceRole,omitempty"`
	UnitNumber      *string                 `json:"unitNumber,omitempty"`
	Email           *string                 `json:"email,omitempty"`
	Phone           *string                 `json:"phone,omitempty"`
	ExpiresAt       time.Time               `json:"expiresAt"`
	AcceptedAt      *time.Time              `json:"acceptedAt,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
}

func (i *Invite) ToDTO(o *org.Organization, p *org.Property) DTO {
	dto := DTO{
		ID:              i.ID,
		Role:            i.Role,
		Organization:    o.ToDTO(),
		MaintenanceRole: i.MaintenanceRole,
		UnitNumber:      i.UnitNumber,
		Email:           i.Email,
		Phone:           i.Phone,
		ExpiresAt:       i.ExpiresAt,
		AcceptedAt:      i.AcceptedAt,
		CreatedAt:       i.CreatedAt,
	}
	if p != nil {
		pd := p.ToDTO()
		dto.Property = &pd
	}
	return dto
}

// CreatedDTO is returned once, to the inviter, and includes the token so
// the link can be shared by hand when delivery is suppressed.
type CreatedDTO struct {
	DTO
	Token string `json:"token"`
}
