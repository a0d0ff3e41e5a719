package iammemory

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

// Seed inserts fixtures directly. It panics on failure and is meant for
// tests and local demo data.
type Seed struct {
	s *Store
}

func (s *Store) Seed() Seed { return Seed{s: s} }

func (sd Seed) Organization(name string) *org.Organization {
	o := &org.Organization{ID: kernel.NewOrganizationID(), Name: name}
	must(sd.s.Organizations().Create(context.Background(), o))
	return o
}

func (sd Seed) Property(o *org.Organization, name string) *org.Property {
	p := &org.Property{ID: kernel.NewPropertyID(), OrganizationPK: o.PK, Name: name, Address: name + " street"}
	must(sd.s.Properties().Create(context.Background(), p))
	return p
}

func (sd Seed) User(t kernel.UserType, email, passwordHash string) *user.User {
	u := &user.User{
		ID:           kernel.NewUserID(),
		Name:         email,
		Email:        &email,
		PasswordHash: passwordHash,
		UserType:     t,
	}
	must(sd.s.Users().Create(context.Background(), u))
	return u
}

func (sd Seed) OrgAdmin(u *user.User, o *org.Organization) {
	must(sd.s.Memberships().CreateOrgAdmin(context.Background(), &org.OrgAdmin{UserPK: u.PK, OrganizationPK: o.PK}))
}

func (sd Seed) Staff(u *user.User, p *org.Property, role kernel.MaintenanceRole) {
	must(sd.s.Memberships().CreateStaff(context.Background(), &org.PropertyStaff{UserPK: u.PK, PropertyPK: p.PK, Role: role}))
}

func (sd Seed) Tenant(u *user.User, p *org.Property, unit string) {
	must(sd.s.Memberships().CreateTenancy(context.Background(), &org.Tenancy{UserPK: u.PK, PropertyPK: p.PK, UnitNumber: &unit}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
