package kernel

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalIDsRefuseToMarshal(t *testing.T) {
	payload := struct {
		ID UserPK `json:"id"`
	}{ID: 42}

	_, err := json.Marshal(payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternalIDExposed)
}

func TestOpaqueIDsAreRandomUUIDs(t *testing.T) {
	a, b := NewUserID(), NewUserID()

	assert.NotEqual(t, a, b)
	assert.True(t, ValidOpaqueID(a.String()))
	assert.False(t, ValidOpaqueID("42"))
	assert.False(t, ValidOpaqueID(""))
}

func TestUserTypeValid(t *testing.T) {
	for _, ut := range []UserType{UserTypeOrgOwner, UserTypeOrgAdmin, UserTypeStaff, UserTypeTenant} {
		assert.True(t, ut.Valid(), ut)
	}
	assert.False(t, UserType("superuser").Valid())
	assert.True(t, UserTypeOrgAdmin.IsOrgLevel())
	assert.False(t, UserTypeStaff.IsOrgLevel())
}

func TestAuthContextRoundTrip(t *testing.T) {
	ac := &AuthContext{UserID: NewUserID(), UserType: UserTypeStaff}
	ctx := WithAuthContext(context.Background(), ac)

	got, ok := AuthContextFrom(ctx)
	require.True(t, ok)
	assert.Same(t, ac, got)

	_, ok = AuthContextFrom(context.Background())
	assert.False(t, ok)
}
