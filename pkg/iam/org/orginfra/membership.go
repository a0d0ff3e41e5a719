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

// PostgresMembershipRepository stores the org_admins, property_staff and
// tenants link tables.
type PostgresMembershipRepository struct {
	db *sqlx.DB
}

func NewPostgresMembershipRepository(db *sqlx.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

var _ org.MembershipRepository = (*PostgresMembershipRepository)(nil)

func (r *PostgresMembershipRepository) CreateOrgAdmin(ctx context.Context, link *org.OrgAdmin) error {
	query := `
		INSERT INTO org_admins (user_id, organization_id)
		VALUES (:user_id, :organization_id)`
	return r.insert(ctx, query, link, "org admin")
}

func (r *PostgresMembershipRepository) FindOrgAdmin(ctx context.Context, userPK kernel.UserPK) (*org.OrgAdmin, error) {
	query := `SELECT user_id, organization_id, created_at FROM org_admins WHERE user_id = $1`

	var link org.OrgAdmin
	if err := r.get(ctx, &link, query, userPK); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *PostgresMembershipRepository) CreateStaff(ctx context.Context, link *org.PropertyStaff) error {
	query := `
		INSERT INTO property_staff (user_id, property_id, maintenance_role)
		VALUES (:user_id, :property_id, :maintenance_role)`
	return r.insert(ctx, query, link, "property staff")
}

func (r *PostgresMembershipRepository) FindStaff(ctx context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*org.PropertyStaff, error) {
	query := `
		SELECT user_id, property_id, maintenance_role, archived_at, created_at
		FROM property_staff
		WHERE user_id = $1 AND property_id = $2 AND archived_at IS NULL`

	var link org.PropertyStaff
	if err := r.get(ctx, &link, query, userPK, propertyPK); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *PostgresMembershipRepository) ListStaff(ctx context.Context, userPK kernel.UserPK) ([]*org.PropertyStaff, error) {
	query := `
		SELECT s.user_id, s.property_id, s.maintenance_role, s.archived_at, s.created_at
		FROM property_staff s
		JOIN properties p ON p.id = s.property_id AND p.archived_at IS NULL
		WHERE s.user_id = $1 AND s.archived_at IS NULL
		ORDER BY s.created_at`

	var links []*org.PropertyStaff
	if err := sqlx.SelectContext(ctx, dbx.Q(ctx, r.db), &links, query, userPK); err != nil {
		return nil, errx.Wrap(err, "failed to list staff links", errx.TypeInternal)
	}
	return links, nil
}

func (r *PostgresMembershipRepository) CountStaffInOrganization(ctx context.Context, userPK kernel.UserPK, orgPK kernel.OrganizationPK) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM property_staff s
		JOIN properties p ON p.id = s.property_id
		WHERE s.user_id = $1 AND p.organization_id = $2
		  AND s.archived_at IS NULL AND p.archived_at IS NULL`

	var n int
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &n, query, userPK, orgPK); err != nil {
		return 0, errx.Wrap(err, "failed to count staff links", errx.TypeInternal)
	}
	return n, nil
}

func (r *PostgresMembershipRepository) CreateTenancy(ctx context.Context, link *org.Tenancy) error {
	query := `
		INSERT INTO tenants (user_id, property_id, unit_number)
		VALUES (:user_id, :property_id, :unit_number)`
	return r.insert(ctx, query, link, "tenancy")
}

func (r *PostgresMembershipRepository) FindTenancy(ctx context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*org.Tenancy, error) {
	query := `
		SELECT user_id, property_id, unit_number, archived_at, created_at
		FROM tenants
		WHERE user_id = $1 AND property_id = $2 AND archived_at IS NULL`

	var link org.Tenancy
	if err := r.get(ctx, &link, query, userPK, propertyPK); err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *PostgresMembershipRepository) ListTenancies(ctx context.Context, userPK kernel.UserPK) ([]*org.Tenancy, error) {
	query := `
		SELECT t.user_id, t.property_id, t.unit_number, t.archived_at, t.created_at
		FROM tenants t
		JOIN properties p ON p.id = t.property_id AND p.archived_at IS NULL
		WHERE t.user_id = $1 AND t.archived_at IS NULL
		ORDER BY t.created_at DESC`

	var links []*org.Tenancy
	if err := sqlx.SelectContext(ctx, dbx.Q(ctx, r.db), &links, query, userPK); err != nil {
		return nil, errx.Wrap(err, "failed to list tenancies", errx.TypeInternal)
	}
	return links, nil
}

func (r *PostgresMembershipRepository) insert(ctx context.Context, query string, arg any, what string) error {
	if _, err := sqlx.NamedExecContext(ctx, dbx.Q(ctx, r.db), query, arg); err != nil {
		if dbx.IsUniqueViolation(err) {
			return org.ErrRegistry.NewWithCause(org.ErrMembershipExists, err).WithDetail("link", what)
		}
		return errx.Wrapf(err, errx.TypeInternal, "failed to create %s link", what)
	}
	return nil
}

func (r *PostgresMembershipRepository) get(ctx context.Context, dest any, query string, args ...any) error {
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return org.ErrRegistry.New(org.ErrMembershipNotFound)
		}
		return errx.Wrap(err, "failed to find membership", errx.TypeInternal)
	}
	return nil
}
