package identityinfra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a read-through cache in front of another Lookup. Only
// successful resolutions are cached; Redis failures fall back to next.
//
// A cached user or property keeps resolving after it is archived, for up to
// the TTL. Whatever archives a user or property must call Invalidate for it,
// or the archived row stays authorized until the entry expires.
type RedisCache struct {
	next   identity.Lookup
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(next identity.Lookup, client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{next: next, client: client, ttl: ttl, prefix: "identity"}
}

func (c *RedisCache) key(kind identity.Kind, opaque string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, kind, opaque)
}

func (c *RedisCache) LookupInternalID(ctx context.Context, kind identity.Kind, opaque string) (int64, error) {
	key := c.key(kind, opaque)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if pk, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return pk, nil
		}
	case !errors.Is(err, redis.Nil):
		logx.WithError(err).WithField("kind", kind).Warn("identity cache read failed")
	}

	pk, err := c.next.LookupInternalID(ctx, kind, opaque)
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, key, pk, c.ttl).Err(); err != nil {
		logx.WithError(err).WithField("kind", kind).Warn("identity cache write failed")
	}
	return pk, nil
}

// Invalidate drops a cached mapping. Call it after archiving a user or
// property.
func (c *RedisCache) Invalidate(ctx context.Context, kind identity.Kind, opaque string) error {
	return c.client.Del(ctx, c.key(kind, opaque)).Err()
}
