package identity

import (
	"context"
	"testing"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup struct {
	calls int
	rows  map[string]int64
}

func (m *mapLookup) LookupInternalID(_ context.Context, kind Kind, opaque string) (int64, error) {
	m.calls++
	if pk, ok := m.rows[string(kind)+":"+opaque]; ok {
		return pk, nil
	}
	return 0, NotFound(kind)
}

func TestResolveUser(t *testing.T) {
	id := kernel.NewUserID()
	lookup := &mapLookup{rows: map[string]int64{"user:" + id.String(): 12}}

	pk, err := NewResolver(lookup).ResolveUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, kernel.UserPK(12), pk)
}

func TestResolve_MalformedNeverHitsStore(t *testing.T) {
	lookup := &mapLookup{}
	r := NewResolver(lookup)

	for _, raw := range []string{"", "12", "'; DROP TABLE users; --", "{" + kernel.NewUserID().String() + "}"} {
		_, err := r.Resolve(context.Background(), KindProperty, raw)
		assert.True(t, errx.IsCode(err, ErrNotFound), raw)
	}
	assert.Zero(t, lookup.calls)
}

func TestResolve_UnknownKind(t *testing.T) {
	_, err := NewResolver(&mapLookup{}).Resolve(context.Background(), Kind("ticket"), kernel.NewUserID().String())
	assert.True(t, errx.IsCode(err, ErrNotFound))
}

func TestResolve_KindsDoNotCross(t *testing.T) {
	id := kernel.NewOrganizationID()
	lookup := &mapLookup{rows: map[string]int64{"organization:" + id.String(): 1}}

	_, err := NewResolver(lookup).ResolveProperty(context.Background(), kernel.PropertyID(id))
	assert.True(t, errx.IsCode(err, ErrNotFound))
}
