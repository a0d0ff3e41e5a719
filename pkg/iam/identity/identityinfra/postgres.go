package identityinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/jmoiron/sqlx"
)

var lookupQueries = map[identity.Kind]string{
	identity.KindUser:         `SELECT id FROM users WHERE public_id = $1 AND archived_at IS NULL`,
	identity.KindOrganization: `SELECT id FROM organizations WHERE public_id = $1`,
	identity.KindProperty:     `SELECT id FROM properties WHERE public_id = $1 AND archived_at IS NULL`,
}

// PostgresLookup resolves opaque identifiers against the entity tables.
type PostgresLookup struct {
	db *sqlx.DB
}

func NewPostgresLookup(db *sqlx.DB) *PostgresLookup {
	return &PostgresLookup{db: db}
}

func (l *PostgresLookup) LookupInternalID(ctx context.Context, kind identity.Kind, opaque string) (int64, error) {
	query, ok := lookupQueries[kind]
	if !ok {
		return 0, identity.NotFound(kind)
	}

	var pk int64
	if err := l.db.GetContext(ctx, &pk, query, opaque); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, identity.NotFound(kind)
		}
		return 0, errx.Wrap(err, "failed to resolve identifier", errx.TypeInternal).
			WithDetail("kind", string(kind))
	}
	return pk, nil
}
