package authsrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

type Deps struct {
	Users       user.Repository
	Orgs        org.OrganizationRepository
	Properties  org.PropertyRepository
	Memberships org.MembershipRepository
	IDs         *identity.Resolver
	Tx          dbx.Transactor
	Passwords   auth.PasswordService
	Sessions    *session.Manager
	Audit       auth.AuditService
}

type Service struct {
	Deps
	// decoy is compared against when the contact is unknown so a miss
	// costs the same as a wrong password.
	decoy string
}

func NewService(d Deps) (*Service, error) {
	decoy, err := d.Passwords.Hash("decoy-password-never-matches")
	if err != nil {
		return nil, err
	}
	return &Service{Deps: d, decoy: decoy}, nil
}

// Register creates an organization, its owner and the owner's admin link
// in one unit of work, then opens a session.
func (s *Service) Register(ctx context.Context, req auth.RegisterRequest, device session.Device) (*auth.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	contact := req.Contact()
	orgName := strings.TrimSpace(req.OrganizationName)

	if taken, err := s.Orgs.ExistsByName(ctx, orgName); err != nil {
		return nil, err
	} else if taken {
		return nil, org.ErrRegistry.New(org.ErrOrganizationExists).WithDetail("name", orgName)
	}
	if taken, err := s.Users.ExistsByContact(ctx, contact); err != nil {
		return nil, err
	} else if taken {
		return nil, user.ErrRegistry.New(user.ErrUserExists)
	}

	hash, err := s.Passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	o := &org.Organization{
		ID:           kernel.NewOrganizationID(),
		Name:         orgName,
		ContactEmail: contact.EmailPtr(),
		ContactPhone: contact.PhonePtr(),
	}
	u := &user.User{
		ID:           kernel.NewUserID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        contact.EmailPtr(),
		Phone:        contact.PhonePtr(),
		PasswordHash: hash,
		UserType:     kernel.UserTypeOrgOwner,
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Orgs.Create(ctx, o); err != nil {
			return err
		}
		if err := s.Users.Create(ctx, u); err != nil {
			return err
		}
		return s.Memberships.CreateOrgAdmin(ctx, &org.OrgAdmin{UserPK: u.PK, OrganizationPK: o.PK})
	})
	if err != nil {
		return nil, err
	}
	s.Audit.LogAccountCreated(ctx, u.ID, u.UserType, "register", device.IPAddress)

	claims := token.Claims{UserID: u.ID, UserType: u.UserType, OrganizationID: &o.ID}
	tokens, err := s.Sessions.Start(ctx, u.PK, claims, device)
	if err != nil {
		return nil, err
	}
	return &auth.Result{Tokens: tokens, Profile: &auth.Profile{User: u, Organization: o}}, nil
}

// Login checks credentials, derives the actor's scope and opens a session.
// Every credential failure looks the same to the caller.
func (s *Service) Login(ctx context.Context, req auth.LoginRequest, device session.Device) (*auth.Result, error) {
	contact := req.Contact()
	method := "email"
	if contact.Email == "" {
		method = "phone"
	}
	if contact.Validate() != nil || req.Password == "" {
		return nil, auth.ErrRegistry.New(auth.ErrInvalidCredentials)
	}

	u, err := s.Users.FindByContact(ctx, contact)
	if err != nil {
		if !errx.IsCode(err, user.ErrUserNotFound) {
			return nil, err
		}
		_ = s.Passwords.Compare(s.decoy, req.Password)
		s.Audit.LogLoginAttempt(ctx, "", method, false, device.IPAddress, device.UserAgent)
		return nil, auth.ErrRegistry.New(auth.ErrInvalidCredentials)
	}

	if err := s.Passwords.Compare(u.PasswordHash, req.Password); err != nil {
		s.Audit.LogLoginAttempt(ctx, u.ID, method, false, device.IPAddress, device.UserAgent)
		return nil, err
	}

	profile, claims, err := s.deriveScope(ctx, u)
	if err != nil {
		return nil, err
	}

	tokens, err := s.Sessions.Start(ctx, u.PK, claims, device)
	if err != nil {
		return nil, err
	}
	s.Audit.LogLoginAttempt(ctx, u.ID, method, true, device.IPAddress, device.UserAgent)
	return &auth.Result{Tokens: tokens, Profile: profile}, nil
}

// Refresh rotates the session. The new pair carries the same claims as the
// presented token.
func (s *Service) Refresh(ctx context.Context, raw string, device session.Device) (*auth.Result, error) {
	tokens, err := s.Sessions.Rotate(ctx, raw, device)
	if err != nil {
		s.Audit.LogTokenRefresh(ctx, "", false, device.IPAddress)
		return nil, err
	}

	// The old session is gone at this point. A profile failure revokes the
	// new one too and reads as an invalid token.
	profile, err := s.profileFromClaims(ctx, tokens.UserPK, tokens.Claims)
	if err != nil {
		if lerr := s.Sessions.Logout(ctx, tokens.RefreshToken); lerr != nil {
			logx.WithError(lerr).Warn("failed to revoke session after refresh failure")
		}
		logx.WithError(err).WithField("user_id", tokens.Claims.UserID).Warn("refresh profile lookup failed")
		s.Audit.LogTokenRefresh(ctx, tokens.Claims.UserID, false, device.IPAddress)
		return nil, session.ErrRegistry.NewWithCause(session.ErrInvalidToken, err)
	}
	s.Audit.LogTokenRefresh(ctx, tokens.Claims.UserID, true, device.IPAddress)
	return &auth.Result{Tokens: tokens, Profile: profile}, nil
}

func (s *Service) Logout(ctx context.Context, raw string, device session.Device) error {
	if err := s.Sessions.Logout(ctx, raw); err != nil {
		return err
	}
	s.Audit.LogLogout(ctx, device.IPAddress)
	return nil
}

// Me returns the profile the caller's claims describe.
func (s *Service) Me(ctx context.Context, ac *kernel.AuthContext) (*auth.Profile, error) {
	userPK, err := s.IDs.ResolveUser(ctx, ac.UserID)
	if err != nil {
		return nil, err
	}
	return s.profileFromClaims(ctx, userPK, token.Claims{
		UserID:         ac.UserID,
		UserType:       ac.UserType,
		OrganizationID: ac.OrganizationID,
		PropertyID:     ac.PropertyID,
	})
}
