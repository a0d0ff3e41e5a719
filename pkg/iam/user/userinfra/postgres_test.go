package userinfra

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresUserRepository(sqlx.NewDb(raw, "postgres")), mock
}

func TestCreate_SetsGeneratedKey(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	email := "ana@example.com"
	u := &user.User{ID: kernel.NewUserID(), Name: "Ana", Email: &email, PasswordHash: "hash", UserType: kernel.UserTypeOrgOwner}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(u.ID, "Ana", &email, nil, "hash", kernel.UserTypeOrgOwner).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, now))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, kernel.UserPK(11), u.PK)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &user.User{ID: kernel.NewUserID()})
	assert.True(t, errx.IsCode(err, user.ErrUserExists))
}

func TestFindByContact_NoRowsIsNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(email) = $1 AND archived_at IS NULL")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByContact(context.Background(), user.Contact{Email: "ghost@example.com"})
	assert.True(t, errx.IsCode(err, user.ErrUserNotFound))
}

func TestFindByID_ScansRow(t *testing.T) {
	repo, mock := newRepo(t)
	id := kernel.NewUserID()
	rows := sqlmock.NewRows([]string{"id", "public_id", "name", "email", "phone", "password_hash", "user_type", "archived_at", "created_at"}).
		AddRow(3, id.String(), "Bo", nil, "+15550100", "h", "tenant", nil, time.Now())
	mock.ExpectQuery("FROM users WHERE public_id").WithArgs(id).WillReturnRows(rows)

	u, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, kernel.UserPK(3), u.PK)
	assert.Equal(t, kernel.UserTypeTenant, u.UserType)
	require.NotNil(t, u.Phone)
	assert.Nil(t, u.Email)
}
