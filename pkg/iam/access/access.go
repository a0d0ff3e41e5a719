// Package access decides whether an authenticated actor may act on an
// organization or property scope.
package access

import (
	"slices"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

// Requirement is declared per route.
type Requirement struct {
	// OrgRoles restricts the user types allowed; empty means any.
	OrgRoles []kernel.UserType
	Property PropertyRule
	// AnyRole lets actors of an unknown user type through.
	AnyRole bool
}

type PropertyRule struct {
	AllowStaff   bool
	AllowTenants bool
	// MaintenanceRoles restricts staff to these roles; empty means any.
	MaintenanceRoles []kernel.MaintenanceRole
}

func (r Requirement) allowsType(t kernel.UserType) bool {
	return len(r.OrgRoles) == 0 || slices.Contains(r.OrgRoles, t)
}

func (p PropertyRule) allowsRole(role kernel.MaintenanceRole) bool {
	return len(p.MaintenanceRoles) == 0 || slices.Contains(p.MaintenanceRoles, role)
}

// Scope is the target named by the request path. Nil fields fall back to
// the actor's claims.
type Scope struct {
	OrganizationID *kernel.OrganizationID
	PropertyID     *kernel.PropertyID
}

// Grant records what the decision resolved so handlers need not repeat
// the lookups.
type Grant struct {
	UserPK         kernel.UserPK
	UserType       kernel.UserType
	OrganizationPK *kernel.OrganizationPK
	Property       *org.Property
	OrgAdmin       *org.OrgAdmin
	Staff          *org.PropertyStaff
	Tenancy        *org.Tenancy
}

// ============================================================================
// Requirements used by the routes
// ============================================================================

var (
	OrgAdmins = Requirement{OrgRoles: []kernel.UserType{kernel.UserTypeOrgOwner, kernel.UserTypeOrgAdmin}}

	PropertyMembers = Requirement{Property: PropertyRule{AllowStaff: true, AllowTenants: true}}

	PropertyManagers = Requirement{Property: PropertyRule{
		AllowStaff:       true,
		MaintenanceRoles: []kernel.MaintenanceRole{kernel.MaintenanceManager},
	}}

	OrgStaff = Requirement{Property: PropertyRule{AllowStaff: true}}
)

var ErrRegistry = errx.NewRegistry("ACCESS")

var (
	ErrForbidden            = ErrRegistry.Register("FORBIDDEN", errx.TypeAuthorization, 0, "Access denied")
	ErrOrganizationRequired = ErrRegistry.Register("ORGANIZATION_REQUIRED", errx.TypeValidation, 0, "An organization is required for this request")
	ErrPropertyRequired     = ErrRegistry.Register("PROPERTY_REQUIRED", errx.TypeValidation, 0, "A property is required for this request")
	ErrUnknownActor         = ErrRegistry.Register("UNKNOWN_ACTOR", errx.TypeAuthentication, 0, "Authentication required")
)

func forbidden(reason string) error {
	return ErrRegistry.New(ErrForbidden).WithDetail("reason", reason)
}
