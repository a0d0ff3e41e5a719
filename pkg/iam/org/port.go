package org

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	FindByPK(ctx context.Context, pk kernel.OrganizationPK) (*Organization, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// PropertyRepository never returns archived properties.
type PropertyRepository interface {
	Create(ctx context.Context, p *Property) error
	FindByPK(ctx context.Context, pk kernel.PropertyPK) (*Property, error)
	ListByOrganization(ctx context.Context, orgPK kernel.OrganizationPK) ([]*Property, error)
}

// MembershipRepository stores role links. Find methods only see active
// (unarchived) links and fail with ErrMembershipNotFound.
type MembershipRepository interface {
	CreateOrgAdmin(ctx context.Context, link *OrgAdmin) error
	FindOrgAdmin(ctx context.Context, userPK kernel.UserPK) (*OrgAdmin, error)

	CreateStaff(ctx context.Context, link *PropertyStaff) error
	FindStaff(ctx context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*PropertyStaff, error)
	ListStaff(ctx context.Context, userPK kernel.UserPK) ([]*PropertyStaff, error)
	CountStaffInOrganization(ctx context.Context, userPK kernel.UserPK, orgPK kernel.OrganizationPK) (int, error)

	CreateTenancy(ctx context.Context, link *Tenancy) error
	FindTenancy(ctx context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*Tenancy, error)
	ListTenancies(ctx context.Context, userPK kernel.UserPK) ([]*Tenancy, error)
}
