package authsrv

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

// deriveScope builds the login claims for u:
//   - org owners and admins carry their organization,
//   - staff carry the organization of their first assignment, and the
//     property when they have exactly one,
//   - tenants carry their most recent tenancy.
func (s *Service) deriveScope(ctx context.Context, u *user.User) (*auth.Profile, token.Claims, error) {
	profile := &auth.Profile{User: u}
	claims := token.Claims{UserID: u.ID, UserType: u.UserType}

	switch u.UserType {
	case kernel.UserTypeOrgOwner, kernel.UserTypeOrgAdmin:
		link, err := s.Memberships.FindOrgAdmin(ctx, u.PK)
		if err != nil {
			if errx.IsCode(err, org.ErrMembershipNotFound) {
				return profile, claims, nil
			}
			return nil, claims, err
		}
		if err := s.attachOrganization(ctx, profile, &claims, link.OrganizationPK); err != nil {
			return nil, claims, err
		}
		props, err := s.Properties.ListByOrganization(ctx, link.OrganizationPK)
		if err != nil {
			return nil, claims, err
		}
		profile.Properties = props

	case kernel.UserTypeStaff:
		links, err := s.Memberships.ListStaff(ctx, u.PK)
		if err != nil {
			return nil, claims, err
		}
		for _, link := range links {
			p, err := s.Properties.FindByPK(ctx, link.PropertyPK)
			if err != nil {
				return nil, claims, err
			}
			if len(profile.Properties) > 0 && p.OrganizationPK != profile.Properties[0].OrganizationPK {
				continue
			}
			profile.Properties = append(profile.Properties, p)
		}
		if len(profile.Properties) == 0 {
			return profile, claims, nil
		}
		if err := s.attachOrganization(ctx, profile, &claims, profile.Properties[0].OrganizationPK); err != nil {
			return nil, claims, err
		}
		if len(profile.Properties) == 1 {
			profile.Property = profile.Properties[0]
			claims.PropertyID = &profile.Property.ID
		}

	case kernel.UserTypeTenant:
		links, err := s.Memberships.ListTenancies(ctx, u.PK)
		if err != nil {
			return nil, claims, err
		}
		if len(links) == 0 {
			return profile, claims, nil
		}
		p, err := s.Properties.FindByPK(ctx, links[0].PropertyPK)
		if err != nil {
			return nil, claims, err
		}
		profile.Property = p
		claims.PropertyID = &p.ID
		if err := s.attachOrganization(ctx, profile, &claims, p.OrganizationPK); err != nil {
			return nil, claims, err
		}

	default:
		return nil, claims, errx.Internal("user has an unknown user type").WithDetail("user_type", string(u.UserType))
	}
	return profile, claims, nil
}

func (s *Service) attachOrganization(ctx context.Context, p *auth.Profile, c *token.Claims, pk kernel.OrganizationPK) error {
	o, err := s.Orgs.FindByPK(ctx, pk)
	if err != nil {
		return err
	}
	p.Organization = o
	c.OrganizationID = &o.ID
	return nil
}

// profileFromClaims loads the entities named by already-issued claims.
func (s *Service) profileFromClaims(ctx context.Context, userPK kernel.UserPK, c token.Claims) (*auth.Profile, error) {
	u, err := s.Users.FindByPK(ctx, userPK)
	if err != nil {
		return nil, err
	}
	profile := &auth.Profile{User: u}

	if c.OrganizationID != nil {
		pk, err := s.IDs.ResolveOrganization(ctx, *c.OrganizationID)
		if err != nil {
			return nil, err
		}
		if profile.Organization, err = s.Orgs.FindByPK(ctx, pk); err != nil {
			return nil, err
		}
	}
	if c.PropertyID != nil {
		pk, err := s.IDs.ResolveProperty(ctx, *c.PropertyID)
		if err != nil {
			return nil, err
		}
		if profile.Property, err = s.Properties.FindByPK(ctx, pk); err != nil {
			return nil, err
		}
	}
	return profile, nil
}
