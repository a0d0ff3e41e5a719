package orginfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// ============================================================================
// Organizations
// ============================================================================

type PostgresOrganizationRepository struct {
	db *sqlx.DB
}

func NewPostgresOrganizationRepository(db *sqlx.DB) *PostgresOrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

func (r *PostgresOrganizationRepository) Create(ctx context.Context, o *org.Organization) error {
	query := `
		INSERT INTO organizations (public_id, name, contact_email, contact_phone, provisioned_phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := dbx.Q(ctx, r.db).QueryRowxContext(ctx, query,
		o.ID, o.Name, o.ContactEmail, o.ContactPhone, o.PhoneNumber,
	).Scan(&o.PK, &o.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return org.ErrRegistry.NewWithCause(org.ErrOrganizationExists, err).WithDetail("name", o.Name)
		}
		return errx.Wrap(err, "failed to create organization", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresOrganizationRepository) FindByPK(ctx context.Context, pk kernel.OrganizationPK) (*org.Organization, error) {
	query := `
		SELECT id, public_id, name, contact_email, contact_phone, provisioned_phone, created_at
		FROM organizations
		WHERE id = $1`

	var o org.Organization
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &o, query, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, org.ErrRegistry.New(org.ErrOrganizationNotFound)
		}
		return nil, errx.Wrap(err, "failed to find organization", errx.TypeInternal)
	}
	return &o, nil
}

func (r *PostgresOrganizationRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM organizations WHERE lower(name) = lower($1))`
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &exists, query, name); err != nil {
		return false, errx.Wrap(err, "failed to check organization name", errx.TypeInternal)
	}
	return exists, nil
}

// ============================================================================
// Properties
// ============================================================================

const propertyColumns = `id, public_id, organization_id, name, address, archived_at, created_at`

type PostgresPropertyRepository struct {
	db *sqlx.DB
}

func NewPostgresPropertyRepository(db *sqlx.DB) *PostgresPropertyRepository {
	return &PostgresPropertyRepository{db: db}
}

func (r *PostgresPropertyRepository) Create(ctx context.Context, p *org.Property) error {
	query := `
		INSERT INTO properties (public_id, organization_id, name, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := dbx.Q(ctx, r.db).QueryRowxContext(ctx, query, p.ID, p.OrganizationPK, p.Name, p.Address).
		Scan(&p.PK, &p.CreatedAt)
	if err != nil {
		return errx.Wrap(err, "failed to create property", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresPropertyRepository) FindByPK(ctx context.Context, pk kernel.PropertyPK) (*org.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1 AND archived_at IS NULL`

	var p org.Property
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &p, query, pk); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, org.ErrRegistry.New(org.ErrPropertyNotFound)
		}
		return nil, errx.Wrap(err, "failed to find property", errx.TypeInternal)
	}
	return &p, nil
}

func (r *PostgresPropertyRepository) ListByOrganization(ctx context.Context, orgPK kernel.OrganizationPK) ([]*org.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties
		WHERE organization_id = $1 AND archived_at IS NULL
		ORDER BY created_at`

	var props []*org.Property
	if err := sqlx.SelectContext(ctx, dbx.Q(ctx, r.db), &props, query, orgPK); err != nil {
		return nil, errx.Wrap(err, "failed to list properties", errx.TypeInternal)
	}
	return props, nil
}
