package invitationsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/access"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

const DefaultTTL = 7 * 24 * time.Hour

type Deps struct {
	Invites     invitation.Repository
	Users       user.Repository
	Orgs        org.OrganizationRepository
	Properties  org.PropertyRepository
	Memberships org.MembershipRepository
	IDs         *identity.Resolver
	Access      *access.Resolver
	Tx          dbx.Transactor
	Passwords   auth.PasswordService
	Sessions    *session.Manager
	Publisher   invitation.Publisher
	Audit       auth.AuditService
	TTL         time.Duration
}

type Service struct {
	Deps
	now func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(d Deps, opts ...Option) *Service {
	if d.TTL <= 0 {
		d.TTL = DefaultTTL
	}
	s := &Service{Deps: d, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorizeInviter admits org owners and admins of the organization in
// their claims.
func (s *Service) authorizeInviter(ctx context.Context, actor *kernel.AuthContext) (*access.Grant, error) {
	if actor == nil || actor.OrganizationID == nil {
		return nil, invitation.ErrRegistry.New(invitation.ErrOrganizationScope)
	}
	return s.Access.Authorize(ctx, actor, access.OrgAdmins, access.Scope{OrganizationID: actor.OrganizationID})
}

// CreateInvite validates and stores an invite, then hands it to delivery.
// Delivery failures are logged and never fail the call.
func (s *Service) CreateInvite(ctx context.Context, actor *kernel.AuthContext, req invitation.CreateRequest, delivery invitation.Delivery) (*invitation.CreatedDTO, error) {
	grant, err := s.authorizeInviter(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	orgPK := *grant.OrganizationPK

	organization, err := s.Orgs.FindByPK(ctx, orgPK)
	if err != nil {
		return nil, err
	}

	var property *org.Property
	if req.PropertyID != nil && !req.PropertyID.IsEmpty() {
		if property, err = s.findProperty(ctx, *req.PropertyID, orgPK); err != nil {
			return nil, err
		}
	}

	contact := req.Contact()
	now := s.now()
	raw, err := invitation.NewToken()
	if err != nil {
		return nil, err
	}

	inv := &invitation.Invite{
		ID:             kernel.NewInviteID(),
		Token:          raw,
		Role:           req.Role,
		OrganizationPK: orgPK,
		Email:          contact.EmailPtr(),
		Phone:          contact.PhonePtr(),
		InvitedBy:      grant.UserPK,
		ExpiresAt:      now.Add(s.TTL),
		CreatedAt:      now,
	}
	if property != nil {
		pk := property.PK
		inv.PropertyPK = &pk
	}
	switch req.Role {
	case kernel.UserTypeStaff:
		inv.MaintenanceRole = req.MaintenanceRole
	case kernel.UserTypeTenant:
		inv.UnitNumber = trimmed(req.UnitNumber)
	}

	// The contact lock holds until the unit of work ends, so two concurrent
	// creates for one contact cannot both pass the pending check.
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Invites.LockContact(ctx, orgPK, inv.Email, inv.Phone); err != nil {
			return err
		}
		if pending, err := s.Invites.ExistsPending(ctx, orgPK, inv.Email, inv.Phone, now); err != nil {
			return err
		} else if pending {
			return invitation.ErrRegistry.New(invitation.ErrPendingExists)
		}
		if taken, err := s.Users.ExistsByContact(ctx, contact); err != nil {
			return err
		} else if taken {
			return invitation.ErrRegistry.New(invitation.ErrContactTaken)
		}
		return s.Invites.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.Audit.LogInviteCreated(ctx, inv.ID, actor.UserID, inv.Role)
	s.publish(ctx, inv, organization, property, grant.UserPK, delivery)

	return &invitation.CreatedDTO{DTO: inv.ToDTO(organization, property), Token: inv.Token}, nil
}

func (s *Service) publish(ctx context.Context, inv *invitation.Invite, o *org.Organization, p *org.Property, inviterPK kernel.UserPK, d invitation.Delivery) {
	if s.Publisher == nil {
		return
	}

	ev := invitation.Event{
		InviteID:         inv.ID,
		Token:            inv.Token,
		Role:             inv.Role,
		OrganizationName: o.Name,
		SendEmail:        d.Email && inv.Email != nil,
		SendSMS:          d.SMS && inv.Phone != nil,
		ExpiresAt:        inv.ExpiresAt,
	}
	if p != nil {
		ev.PropertyName = p.Name
	}
	if inv.Email != nil {
		ev.Email = *inv.Email
	}
	if inv.Phone != nil {
		ev.Phone = *inv.Phone
	}
	if inviter, err := s.Users.FindByPK(ctx, inviterPK); err == nil {
		ev.InviterName = inviter.Name
	}
	if !ev.SendEmail && !ev.SendSMS {
		return
	}

	if err := s.Publisher.PublishInviteCreated(context.WithoutCancel(ctx), ev); err != nil {
		logx.WithFields(logx.Fields{"invite_id": inv.ID}).WithError(err).
			Warn("invite stored but delivery could not be scheduled")
	}
}

// GetInviteDetails returns the invite behind a token while it can still be
// accepted.
func (s *Service) GetInviteDetails(ctx context.Context, raw string) (*invitation.DTO, error) {
	inv, err := s.usableInvite(ctx, raw)
	if err != nil {
		return nil, err
	}
	o, p, err := s.inviteScope(ctx, inv)
	if err != nil {
		return nil, err
	}
	dto := inv.ToDTO(o, p)
	return &dto, nil
}

// AcceptInvite creates the invited user and role link, consumes the
// invite and opens a session.
func (s *Service) AcceptInvite(ctx context.Context, raw string, req invitation.AcceptRequest, device session.Device) (*auth.Result, error) {
	inv, err := s.usableInvite(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	contact := user.NormalizeContact(deref(inv.Email), deref(inv.Phone))
	if taken, err := s.Users.ExistsByContact(ctx, contact); err != nil {
		return nil, err
	} else if taken {
		return nil, s.contactTaken(ctx, inv.ID, nil)
	}

	o, p, err := s.inviteScope(ctx, inv)
	if err != nil {
		return nil, err
	}

	hash, err := s.Passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:           kernel.NewUserID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        inv.Email,
		Phone:        inv.Phone,
		PasswordHash: hash,
		UserType:     inv.Role,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Users.Create(ctx, u); err != nil {
			if errx.IsCode(err, user.ErrUserExists) {
				return invitation.ErrRegistry.NewWithCause(invitation.ErrContactTaken, err)
			}
			return err
		}
		if err := s.createLink(ctx, inv, u, req); err != nil {
			return err
		}
		return s.Invites.MarkAccepted(ctx, inv.PK, u.PK, s.now())
	})
	if errx.IsCode(err, invitation.ErrContactTaken) {
		return nil, s.contactTaken(ctx, inv.ID, err)
	}
	if err != nil {
		return nil, err
	}
	s.Audit.LogAccountCreated(ctx, u.ID, u.UserType, "invite", device.IPAddress)

	claims := token.Claims{UserID: u.ID, UserType: u.UserType, OrganizationID: &o.ID}
	profile := &auth.Profile{User: u, Organization: o}
	if p != nil {
		claims.PropertyID = &p.ID
		profile.Property = p
	}

	tokens, err := s.Sessions.Start(ctx, u.PK, claims, device)
	if err != nil {
		return nil, err
	}
	return &auth.Result{Tokens: tokens, Profile: profile}, nil
}

// contactTaken reports a contact conflict. When the invite itself has been
// accepted meanwhile, the caller lost a concurrent accept and gets
// ALREADY_ACCEPTED instead. The re-read runs in its own unit of work so it
// only sees committed state.
func (s *Service) contactTaken(ctx context.Context, id kernel.InviteID, cause error) error {
	accepted := false
	_ = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.Invites.FindByID(ctx, id)
		accepted = err == nil && inv.AcceptedAt != nil
		return nil
	})
	if accepted {
		return invitation.ErrRegistry.New(invitation.ErrAlreadyAccepted)
	}
	if cause != nil {
		return cause
	}
	return invitation.ErrRegistry.New(invitation.ErrContactTaken)
}

func (s *Service) createLink(ctx context.Context, inv *invitation.Invite, u *user.User, req invitation.AcceptRequest) error {
	switch inv.Role {
	case kernel.UserTypeOrgAdmin:
		return s.Memberships.CreateOrgAdmin(ctx, &org.OrgAdmin{UserPK: u.PK, OrganizationPK: inv.OrganizationPK})
	case kernel.UserTypeStaff:
		if inv.PropertyPK == nil || inv.MaintenanceRole == nil {
			return errx.Internal("staff invite is missing its property or role").WithDetail("invite_id", inv.ID)
		}
		return s.Memberships.CreateStaff(ctx, &org.PropertyStaff{
			UserPK:     u.PK,
			PropertyPK: *inv.PropertyPK,
			Role:       *inv.MaintenanceRole,
		})
	case kernel.UserTypeTenant:
		if inv.PropertyPK == nil {
			return errx.Internal("tenant invite is missing its property").WithDetail("invite_id", inv.ID)
		}
		unit := trimmed(req.UnitNumber)
		if unit == nil {
			unit = inv.UnitNumber
		}
		return s.Memberships.CreateTenancy(ctx, &org.Tenancy{
			UserPK:     u.PK,
			PropertyPK: *inv.PropertyPK,
			UnitNumber: unit,
		})
	default:
		return invitation.ErrRegistry.New(invitation.ErrRoleNotInvitable).WithDetail("role", string(inv.Role))
	}
}

// ListPending returns the actor organization's invites that can still be
// accepted, oldest first.
func (s *Service) ListPending(ctx context.Context, actor *kernel.AuthContext) ([]invitation.DTO, error) {
	grant, err := s.authorizeInviter(ctx, actor)
	if err != nil {
		return nil, err
	}

	o, err := s.Orgs.FindByPK(ctx, *grant.OrganizationPK)
	if err != nil {
		return nil, err
	}
	invites, err := s.Invites.ListPending(ctx, o.PK, s.now())
	if err != nil {
		return nil, err
	}

	props := map[kernel.PropertyPK]*org.Property{}
	out := make([]invitation.DTO, 0, len(invites))
	for _, inv := range invites {
		var p *org.Property
		if inv.PropertyPK != nil {
			if p = props[*inv.PropertyPK]; p == nil {
				if p, err = s.Properties.FindByPK(ctx, *inv.PropertyPK); err != nil && !errx.IsCode(err, org.ErrPropertyNotFound) {
					return nil, err
				}
				props[*inv.PropertyPK] = p
			}
		}
		out = append(out, inv.ToDTO(o, p))
	}
	return out, nil
}

// RevokeInvite deletes a pending invite of the actor's organization.
// Invites of other organizations are reported as not found.
func (s *Service) RevokeInvite(ctx context.Context, actor *kernel.AuthContext, id kernel.InviteID) error {
	grant, err := s.authorizeInviter(ctx, actor)
	if err != nil {
		return err
	}
	if !kernel.ValidOpaqueID(id.String()) {
		return invitation.ErrRegistry.New(invitation.ErrNotFound)
	}

	inv, err := s.Invites.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.OrganizationPK != *grant.OrganizationPK {
		return invitation.ErrRegistry.New(invitation.ErrNotFound)
	}
	if inv.IsAccepted() {
		return invitation.ErrRegistry.New(invitation.ErrAlreadyAccepted)
	}
	if err := s.Invites.Delete(ctx, inv.PK); err != nil {
		return err
	}

	logx.WithFields(logx.Fields{"invite_id": inv.ID, "revoked_by": actor.UserID}).Info("invite revoked")
	return nil
}

func (s *Service) usableInvite(ctx context.Context, raw string) (*invitation.Invite, error) {
	if raw == "" {
		return nil, invitation.ErrRegistry.New(invitation.ErrNotFound)
	}
	inv, err := s.Invites.FindByToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := inv.CheckUsable(s.now()); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) inviteScope(ctx context.Context, inv *invitation.Invite) (*org.Organization, *org.Property, error) {
	o, err := s.Orgs.FindByPK(ctx, inv.OrganizationPK)
	if err != nil {
		return nil, nil, err
	}
	if inv.PropertyPK == nil {
		return o, nil, nil
	}
	p, err := s.Properties.FindByPK(ctx, *inv.PropertyPK)
	if err != nil {
		return nil, nil, err
	}
	return o, p, nil
}

// findProperty resolves a property of the organization. Properties of
// other organizations are reported as not found.
func (s *Service) findProperty(ctx context.Context, id kernel.PropertyID, orgPK kernel.OrganizationPK) (*org.Property, error) {
	pk, err := s.IDs.ResolveProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.Properties.FindByPK(ctx, pk)
	if err != nil {
		return nil, err
	}
	if p.OrganizationPK != orgPK {
		return nil, identity.NotFound(identity.KindProperty)
	}
	return p, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
