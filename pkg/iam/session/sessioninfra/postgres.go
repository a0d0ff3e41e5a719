package sessioninfra

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/propcore/pkg/dbx"
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

var _ session.Repository = (*PostgresSessionRepository)(nil)

func (r *PostgresSessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO sessions (user_id, token_hash, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := dbx.Q(ctx, r.db).QueryRowxContext(ctx, query,
		s.UserPK, s.TokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt,
	).Scan(&s.PK, &s.CreatedAt)
	if err != nil {
		return errx.Wrap(err, "failed to create session", errx.TypeInternal)
	}
	return nil
}

// Consume is a single DELETE ... RETURNING so concurrent rotations of one
// token race on the row lock and only one sees it. An expired row is
// deleted as well but reported as not found.
func (r *PostgresSessionRepository) Consume(ctx context.Context, userPK kernel.UserPK, hash string) (*session.Session, error) {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1 AND token_hash = $2
		RETURNING id, user_id, token_hash, user_agent, ip_address, expires_at, created_at`

	var s session.Session
	if err := sqlx.GetContext(ctx, dbx.Q(ctx, r.db), &s, query, userPK, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrRegistry.New(session.ErrSessionNotFound)
		}
		return nil, errx.Wrap(err, "failed to consume session", errx.TypeInternal)
	}
	if s.IsExpired(time.Now()) {
		return nil, session.ErrRegistry.New(session.ErrSessionNotFound)
	}
	return &s, nil
}

func (r *PostgresSessionRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	res, err := dbx.Q(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hash)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete session", errx.TypeInternal)
	}
	return res.RowsAffected()
}

func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := dbx.Q(ctx, r.db).ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired sessions", errx.TypeInternal)
	}
	return res.RowsAffected()
}
