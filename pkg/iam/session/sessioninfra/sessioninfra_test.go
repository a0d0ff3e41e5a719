package sessioninfra

import (
	"context"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionCols = []string{"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at"}

func newRepo(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresSessionRepository(sqlx.NewDb(raw, "postgres")), mock
}

func TestConsume_DeletesAndReturns(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM sessions WHERE user_id = $1 AND token_hash = $2 RETURNING")).
		WithArgs(int64(7), "hash").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, 7, "hash", "ua", "ip", time.Now().Add(time.Hour), time.Now()))

	s, err := repo.Consume(context.Background(), 7, "hash")
	require.NoError(t, err)
	assert.Equal(t, "hash", s.TokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsume_ZeroRowsIsSessionNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("DELETE FROM sessions").WillReturnRows(sqlmock.NewRows(sessionCols))

	_, err := repo.Consume(context.Background(), 7, "hash")
	assert.True(t, errx.IsCode(err, session.ErrSessionNotFound))
}

func TestConsume_ExpiredRowIsSessionNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("DELETE FROM sessions").
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(1, 7, "hash", "", "", time.Now().Add(-time.Minute), time.Now()))

	_, err := repo.Consume(context.Background(), 7, "hash")
	assert.True(t, errx.IsCode(err, session.ErrSessionNotFound))
}

func TestDeleteByHash_ReportsRows(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE token_hash = $1")).
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteByHash(context.Background(), "hash")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweeper_RunsJobs(t *testing.T) {
	var runs atomic.Int32
	sw, err := NewSweeper(context.Background(), 20*time.Millisecond, SweepJob{
		Name: "sessions",
		Run: func(context.Context) (int64, error) {
			runs.Add(1)
			return 0, nil
		},
	})
	require.NoError(t, err)
	sw.Start()
	defer sw.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 2*time.Second, 10*time.Millisecond)
}
