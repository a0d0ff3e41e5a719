package kernel

// UserType is the closed set of actor kinds. Switches over it must be
// exhaustive; anything else is treated as unknown.
type UserType string

const (
	UserTypeOrgOwner UserType = "org_owner"
	UserTypeOrgAdmin UserType = "org_admin"
	UserTypeStaff    UserType = "staff"
	UserTypeTenant   UserType = "tenant"
)

func (t UserType) String() string { return string(t) }

func (t UserType) Valid() bool {
	switch t {
	case UserTypeOrgOwner, UserTypeOrgAdmin, UserTypeStaff, UserTypeTenant:
		return true
	default:
		return false
	}
}

// IsOrgLevel reports whether the type administers a whole organization.
func (t UserType) IsOrgLevel() bool {
	return t == UserTypeOrgOwner || t == UserTypeOrgAdmin
}

// MaintenanceRole is the role a staff member holds on one property.
type MaintenanceRole string

const (
	MaintenanceManager MaintenanceRole = "manager"
	MaintenanceMember  MaintenanceRole = "member"
)

func (r MaintenanceRole) String() string { return string(r) }

func (r MaintenanceRole) Valid() bool {
	return r == MaintenanceManager || r == MaintenanceMember
}
