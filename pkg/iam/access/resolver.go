package access

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

type Resolver struct {
	ids         *identity.Resolver
	properties  org.PropertyRepository
	memberships org.MembershipRepository
	failOpen    bool
}

type Option func(*Resolver)

// WithFailOpen lets unknown user types through every requirement. It
// exists for deployments migrating from the permissive default and logs
// every use.
func WithFailOpen() Option {
	return func(r *Resolver) { r.failOpen = true }
}

func NewResolver(ids *identity.Resolver, properties org.PropertyRepository, memberships org.MembershipRepository, opts ...Option) *Resolver {
	r := &Resolver{ids: ids, properties: properties, memberships: memberships}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authorize applies req to actor within scope. The first failing check
// denies.
func (r *Resolver) Authorize(ctx context.Context, actor *kernel.AuthContext, req Requirement, scope Scope) (*Grant, error) {
	if !actor.IsValid() {
		return nil, ErrRegistry.New(ErrUnknownActor)
	}
	if !req.allowsType(actor.UserType) {
		return nil, forbidden("user type not allowed")
	}

	userPK, err := r.ids.ResolveUser(ctx, actor.UserID)
	if err != nil {
		if errx.IsCode(err, identity.ErrNotFound) {
			return nil, ErrRegistry.NewWithCause(ErrUnknownActor, err)
		}
		return nil, err
	}

	grant := &Grant{UserPK: userPK, UserType: actor.UserType}
	if err := r.resolveScope(ctx, actor, scope, grant); err != nil {
		return nil, err
	}

	switch actor.UserType {
	case kernel.UserTypeOrgOwner, kernel.UserTypeOrgAdmin:
		err = r.authorizeOrgAdmin(ctx, grant)
	case kernel.UserTypeStaff:
		err = r.authorizeStaff(ctx, req.Property, grant)
	case kernel.UserTypeTenant:
		err = r.authorizeTenant(ctx, req.Property, grant)
	default:
		err = r.authorizeUnknown(actor, req)
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// resolveScope prefers the path and falls back to the claims. A property
// outside the named organization is reported as not found.
func (r *Resolver) resolveScope(ctx context.Context, actor *kernel.AuthContext, scope Scope, g *Grant) error {
	orgID := scope.OrganizationID
	if orgID == nil {
		orgID = actor.OrganizationID
	}
	propID := scope.PropertyID
	if propID == nil {
		propID = actor.PropertyID
	}

	if orgID != nil {
		pk, err := r.ids.ResolveOrganization(ctx, *orgID)
		if err != nil {
			return err
		}
		g.OrganizationPK = &pk
	}

	if propID != nil {
		pk, err := r.ids.ResolveProperty(ctx, *propID)
		if err != nil {
			return err
		}
		prop, err := r.properties.FindByPK(ctx, pk)
		if err != nil {
			if errx.IsCode(err, org.ErrPropertyNotFound) {
				return identity.NotFound(identity.KindProperty)
			}
			return err
		}
		if g.OrganizationPK != nil && *g.OrganizationPK != prop.OrganizationPK {
			return identity.NotFound(identity.KindProperty)
		}
		orgPK := prop.OrganizationPK
		g.OrganizationPK = &orgPK
		g.Property = prop
	}
	return nil
}

func (r *Resolver) authorizeOrgAdmin(ctx context.Context, g *Grant) error {
	if g.OrganizationPK == nil {
		return ErrRegistry.New(ErrOrganizationRequired)
	}
	link, err := r.memberships.FindOrgAdmin(ctx, g.UserPK)
	if err != nil {
		if errx.IsCode(err, org.ErrMembershipNotFound) {
			return forbidden("not an administrator of this organization")
		}
		return err
	}
	if link.OrganizationPK != *g.OrganizationPK {
		return forbidden("not an administrator of this organization")
	}
	g.OrgAdmin = link
	return nil
}

func (r *Resolver) authorizeStaff(ctx context.Context, rule PropertyRule, g *Grant) error {
	if !rule.AllowStaff {
		return forbidden("staff not allowed")
	}

	if g.Property == nil {
		if g.OrganizationPK == nil {
			return ErrRegistry.New(ErrOrganizationRequired)
		}
		n, err := r.memberships.CountStaffInOrganization(ctx, g.UserPK, *g.OrganizationPK)
		if err != nil {
			return err
		}
		if n == 0 {
			return forbidden("no staff assignment in this organization")
		}
		return nil
	}

	link, err := r.memberships.FindStaff(ctx, g.UserPK, g.Property.PK)
	if err != nil {
		if errx.IsCode(err, org.ErrMembershipNotFound) {
			return forbidden("not assigned to this property")
		}
		return err
	}
	if !rule.allowsRole(link.Role) {
		return forbidden("maintenance role not allowed")
	}
	g.Staff = link
	return nil
}

func (r *Resolver) authorizeTenant(ctx context.Context, rule PropertyRule, g *Grant) error {
	if !rule.AllowTenants {
		return forbidden("tenants not allowed")
	}
	if g.Property == nil {
		return ErrRegistry.New(ErrPropertyRequired)
	}

	link, err := r.memberships.FindTenancy(ctx, g.UserPK, g.Property.PK)
	if err != nil {
		if errx.IsCode(err, org.ErrMembershipNotFound) {
			return forbidden("not a tenant of this property")
		}
		return err
	}
	g.Tenancy = link
	return nil
}

func (r *Resolver) authorizeUnknown(actor *kernel.AuthContext, req Requirement) error {
	if req.AnyRole {
		return nil
	}
	if r.failOpen {
		logx.WithFields(logx.Fields{"user_id": actor.UserID, "user_type": actor.UserType}).
			Warn("fail-open authorization admitted an unknown user type")
		return nil
	}
	return forbidden("unknown user type")
}
