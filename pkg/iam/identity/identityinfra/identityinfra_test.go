package identityinfra

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresLookup_Property(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	id := kernel.NewPropertyID().String()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM properties WHERE public_id = $1 AND archived_at IS NULL")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))

	pk, err := NewPostgresLookup(sqlx.NewDb(raw, "postgres")).LookupInternalID(context.Background(), identity.KindProperty, id)
	require.NoError(t, err)
	assert.Equal(t, int64(31), pk)
}

func TestPostgresLookup_MissingIsNotFound(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresLookup(sqlx.NewDb(raw, "postgres")).LookupInternalID(context.Background(), identity.KindUser, kernel.NewUserID().String())
	assert.True(t, errx.IsCode(err, identity.ErrNotFound))
}

type countingLookup struct {
	calls int
	pk    int64
	err   error
}

func (c *countingLookup) LookupInternalID(context.Context, identity.Kind, string) (int64, error) {
	c.calls++
	return c.pk, c.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisCache_ReadThrough(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingLookup{pk: 77}
	cache := NewRedisCache(next, client, time.Minute)
	id := kernel.NewUserID().String()

	for i := 0; i < 3; i++ {
		pk, err := cache.LookupInternalID(context.Background(), identity.KindUser, id)
		require.NoError(t, err)
		assert.Equal(t, int64(77), pk)
	}
	assert.Equal(t, 1, next.calls)
	assert.True(t, mr.Exists("identity:user:"+id))

	mr.FastForward(2 * time.Minute)
	_, err := cache.LookupInternalID(context.Background(), identity.KindUser, id)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestRedisCache_DoesNotCacheMisses(t *testing.T) {
	_, client := newRedis(t)
	next := &countingLookup{err: identity.NotFound(identity.KindProperty)}
	cache := NewRedisCache(next, client, time.Minute)
	id := kernel.NewPropertyID().String()

	for i := 0; i < 2; i++ {
		_, err := cache.LookupInternalID(context.Background(), identity.KindProperty, id)
		assert.True(t, errx.IsCode(err, identity.ErrNotFound))
	}
	assert.Equal(t, 2, next.calls)
}

func TestRedisCache_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingLookup{pk: 5}
	cache := NewRedisCache(next, client, time.Minute)
	mr.Close()

	pk, err := cache.LookupInternalID(context.Background(), identity.KindOrganization, kernel.NewOrganizationID().String())
	require.NoError(t, err)
	assert.Equal(t, int64(5), pk)
}

func TestRedisCache_Invalidate(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewRedisCache(&countingLookup{pk: 1}, client, time.Minute)
	id := kernel.NewPropertyID().String()

	_, err := cache.LookupInternalID(context.Background(), identity.KindProperty, id)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), identity.KindProperty, id))
	assert.False(t, mr.Exists("identity:property:"+id))
}

func TestRedisCache_ArchivedRowResolvesUntilInvalidated(t *testing.T) {
	_, client := newRedis(t)
	next := &countingLookup{pk: 9}
	cache := NewRedisCache(next, client, time.Hour)
	id := kernel.NewPropertyID().String()
	ctx := context.Background()

	_, err := cache.LookupInternalID(ctx, identity.KindProperty, id)
	require.NoError(t, err)

	// The property is archived in the store.
	next.err = identity.NotFound(identity.KindProperty)
	pk, err := cache.LookupInternalID(ctx, identity.KindProperty, id)
	require.NoError(t, err)
	assert.Equal(t, int64(9), pk)

	require.NoError(t, cache.Invalidate(ctx, identity.KindProperty, id))
	_, err = cache.LookupInternalID(ctx, identity.KindProperty, id)
	assert.True(t, errx.IsCode(err, identity.ErrNotFound))
}
