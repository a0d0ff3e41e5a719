package org

import (
	"time"

	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type Organization struct {
	PK           kernel.OrganizationPK `db:"id" json:"-"`
	ID           kernel.OrganizationID `db:"public_id"`
	Name         string                `db:"name"`
	ContactEmail *string               `db:"contact_email"`
	ContactPhone *string               `db:"contact_phone"`
	PhoneNumber  *string               `db:"provisioned_phone"`
	CreatedAt    time.Time             `db:"created_at"`
}

type OrganizationDTO struct {
	ID           kernel.OrganizationID `json:"id"`
	Name         string                `json:"name"`
	ContactEmail *string               `json:"contactEmail,omitempty"`
	ContactPhone *string               `json:"contactPhone,omitempty"`
	PhoneNumber  *string               `json:"phoneNumber,omitempty"`
}

func (o *Organization) ToDTO() OrganizationDTO {
	return OrganizationDTO{
		ID:           o.ID,
		Name:         o.Name,
		ContactEmail: o.ContactEmail,
		ContactPhone: o.ContactPhone,
		PhoneNumber:  o.PhoneNumber,
	}
}

type Property struct {
	PK             kernel.PropertyPK     `db:"id" json:"-"`
	ID             kernel.PropertyID     `db:"public_id"`
	OrganizationPK kernel.OrganizationPK `db:"organization_id" json:"-"`
	Name           string                `db:"name"`
	Address        string                `db:"address"`
	ArchivedAt     *time.Time            `db:"archived_at"`
	CreatedAt      time.Time             `db:"created_at"`
}

type PropertyDTO struct {
	ID      kernel.PropertyID `json:"id"`
	Name    string            `json:"name"`
	Address string            `json:"address"`
}

func (p *Property) ToDTO() PropertyDTO {
	return PropertyDTO{ID: p.ID, Name: p.Name, Address: p.Address}
}

// ============================================================================
// Role links
// ============================================================================

// OrgAdmin links an org-level user to the one organization they administer.
type OrgAdmin struct {
	UserPK         kernel.UserPK         `db:"user_id"`
	OrganizationPK kernel.OrganizationPK `db:"organization_id"`
	CreatedAt      time.Time             `db:"created_at"`
}

// PropertyStaff grants a staff user a maintenance role on one property.
type PropertyStaff struct {
	UserPK     kernel.UserPK          `db:"user_id"`
	PropertyPK kernel.PropertyPK      `db:"property_id"`
	Role       kernel.MaintenanceRole `db:"maintenance_role"`
	ArchivedAt *time.Time             `db:"archived_at"`
	CreatedAt  time.Time              `db:"created_at"`
}

// Tenancy places a tenant user in a unit of one property.
type Tenancy struct {
	UserPK     kernel.UserPK     `db:"user_id"`
	PropertyPK kernel.PropertyPK `db:"property_id"`
	UnitNumber *string           `db:"unit_number"`
	ArchivedAt *time.Time        `db:"archived_at"`
	CreatedAt  time.Time         `db:"created_at"`
}
