package invitationinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

const inviteColumns = `id, public_id, token, role, organization_id, property_id, maintenance_role,
	unit_number, email, phone, invited_by, expires_at, accepted_at, accepted_by, created_at`

type PostgresInviteRepository struct {
	db *sqlx.DB
}

func NewPostgresInviteRepository(db *sqlx.DB) *PostgresInviteRepository {
	return &PostgresInviteRepository{db: db}
}

var _ invitation.Repository = (*PostgresInviteRepository)(nil)

func (r *PostgresInviteRepository) Create(ctx context.Context, inv *invitation.Invite) error {
	query := `
		INSERT INTO invites (
			public_id, token, role, organization_id, property_id, maintenance_role,
			unit_number, email, phone, invited_by, expires_at
		) VALUES (
			:public_id, :token, :role, :organization_id, :property_id, :maintenance_role,
			:unit_number, :email, :phone, :invited_by, :expires_at
		)
		RETURNING id, created_at`

	q, args, err := sqlx.Named(query, inv)
	if err != nil {
		return errx.Wrap(err, "failed to bind invite", errx.TypeInternal)
	}
	q = sqlx.Rebind(sqlx.DOLLAR, q)

	if err := dbx.Q(ctx, r.db).QueryRowxContext(ctx, q, args...).Scan(&inv.PK, &inv.CreatedAt); err != nil {
		// Only token and public_id are unique. Pending duplicates are kept
		// out by LockContact and ExistsPending.
		if dbx.IsUniqueViolation(err) {
			return errx.Wrap(err, "invite token collision", errx.TypeInternal)
		}
		return errx.Wrap(err, "failed to create invite", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresInviteRepository) FindByToken(ctx context.Context, token string) (*invitation.Invite, error) {
	return r.findOne(ctx, `WHERE token = $1`, token)
}

func (r *PostgresInviteRepository) FindByID(ctx context.Context, id kernel.InviteID) (*invitation.Invite, error) {
	return r.findOne(ctx, `WHERE public_id = $1`, id)
}

// LockContact takes transaction-scoped advisory locks on the normalized
// e-mail and phone. Outside a transaction the locks are released at once.
func (r *PostgresInviteRepository) LockContact(ctx context.Context, orgPK kernel.OrganizationPK, email, phone *string) error {
	for _, key := range contactLockKeys(orgPK, email, phone) {
		if _, err := dbx.Q(ctx, r.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return errx.Wrap(err, "failed to lock invite contact", errx.TypeInternal)
		}
	}
	return nil
}

// contactLockKeys always orders e-mail before phone so two creates never
// wait on each other's second lock.
func contactLockKeys(orgPK kernel.OrganizationPK, email, phone *string) []string {
	var keys []string
	if email != nil {
		keys = append(keys, fmt.Sprintf("invite:%d:email:%s", orgPK, strings.ToLower(*email)))
	}
	if phone != nil {
		keys = append(keys, fmt.Sprintf("invite:%d:phone:%s", orgPK, *phone))
	}
	return keys
}

func (r *PostgresInviteRepository) ExistsPending(ctx context.Context, orgPK kernel.OrganizationPK, email, phone *string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM invites
			WHERE organization_id = $1
			  AND accepted_at IS NULL
			  AND expires_at > $2
			  AND (lower(email) = lower($3) OR phone = $4)
		)`

	var exists bool
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &exists, query, orgPK, now, email, phone); err != nil {
		return false, errx.Wrap(err, "failed to check pending invites", errx.TypeInternal)
	}
	return exists, nil
}

func (r *PostgresInviteRepository) ListPending(ctx context.Context, orgPK kernel.OrganizationPK, now time.Time) ([]*invitation.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites
		WHERE organization_id = $1 AND accepted_at IS NULL AND expires_at > $2
		ORDER BY id`

	var out []*invitation.Invite
	if err := sqlx.SelectContext(ctx, dbx.Q(ctx, r.db), &out, query, orgPK, now); err != nil {
		return nil, errx.Wrap(err, "failed to list pending invites", errx.TypeInternal)
	}
	return out, nil
}

// MarkAccepted only touches an unaccepted row, so of two concurrent
// acceptances exactly one sees a row updated.
func (r *PostgresInviteRepository) MarkAccepted(ctx context.Context, pk kernel.InvitePK, by kernel.UserPK, at time.Time) error {
	query := `UPDATE invites SET accepted_at = $2, accepted_by = $3 WHERE id = $1 AND accepted_at IS NULL`

	res, err := dbx.Q(ctx, r.db).ExecContext(ctx, query, pk, at, by)
	if err != nil {
		return errx.Wrap(err, "failed to accept invite", errx.TypeInternal)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to accept invite", errx.TypeInternal)
	}
	if n == 0 {
		return invitation.ErrRegistry.New(invitation.ErrAlreadyAccepted)
	}
	return nil
}

func (r *PostgresInviteRepository) Delete(ctx context.Context, pk kernel.InvitePK) error {
	res, err := dbx.Q(ctx, r.db).ExecContext(ctx, `DELETE FROM invites WHERE id = $1 AND accepted_at IS NULL`, pk)
	if err != nil {
		return errx.Wrap(err, "failed to delete invite", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invitation.ErrRegistry.New(invitation.ErrNotFound)
	}
	return nil
}

// CountExpiredPending reports unaccepted invites past their expiry.
func (r *PostgresInviteRepository) CountExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &n,
		`SELECT count(*) FROM invites WHERE accepted_at IS NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, errx.Wrap(err, "failed to count expired invites", errx.TypeInternal)
	}
	return n, nil
}

func (r *PostgresInviteRepository) findOne(ctx context.Context, where string, arg any) (*invitation.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites ` + where

	var inv invitation.Invite
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &inv, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrRegistry.New(invitation.ErrNotFound)
		}
		return nil, errx.Wrap(err, "failed to find invite", errx.TypeInternal)
	}
	return &inv, nil
}
