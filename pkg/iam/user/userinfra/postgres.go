package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, public_id, name, email, phone, password_hash, user_type, archived_at, created_at`

// PostgresUserRepository stores users in the users table.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (public_id, name, email, phone, password_hash, user_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := dbx.Q(ctx, r.db).QueryRowxContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.UserType,
	).Scan(&u.PK, &u.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return user.ErrRegistry.NewWithCause(user.ErrUserExists, err)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresUserRepository) FindByPK(ctx context.Context, pk kernel.UserPK) (*user.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, pk)
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return r.findOne(ctx, `WHERE public_id = $1`, id)
}

func (r *PostgresUserRepository) FindByContact(ctx context.Context, c user.Contact) (*user.User, error) {
	if c.Email != "" {
		return r.findOne(ctx, `WHERE lower(email) = $1`, c.Email)
	}
	return r.findOne(ctx, `WHERE phone = $1`, c.Phone)
}

// ExistsByContact also counts archived users; contacts are never reused.
func (r *PostgresUserRepository) ExistsByContact(ctx context.Context, c user.Contact) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1 OR phone = $2)`

	var email, phone any
	if c.Email != "" {
		email = c.Email
	}
	if c.Phone != "" {
		phone = c.Phone
	}

	var exists bool
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &exists, query, email, phone); err != nil {
		return false, errx.Wrap(err, "failed to check user contact", errx.TypeInternal)
	}
	return exists, nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where + ` AND archived_at IS NULL`

	var u user.User
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &u, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.NotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}
