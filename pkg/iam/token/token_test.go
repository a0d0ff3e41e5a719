package token

import (
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "propcore-test",
	}
}

func newIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	i, err := NewIssuer(testConfig(), opts...)
	require.NoError(t, err)
	return i
}

func staffClaims() Claims {
	org := kernel.NewOrganizationID()
	prop := kernel.NewPropertyID()
	return Claims{UserID: kernel.NewUserID(), UserType: kernel.UserTypeStaff, OrganizationID: &org, PropertyID: &prop}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	i := newIssuer(t)
	want := staffClaims()

	raw, err := i.IssueAccessToken(want)
	require.NoError(t, err)

	got, err := i.Verify(raw, Access)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestVerify_KindsDoNotCross(t *testing.T) {
	i := newIssuer(t)
	refresh, err := i.IssueRefreshToken(staffClaims())
	require.NoError(t, err)

	_, err = i.Verify(refresh, Access)
	assert.True(t, errx.IsCode(err, ErrMalformed))

	access, err := i.IssueAccessToken(staffClaims())
	require.NoError(t, err)
	_, err = i.Verify(access, Refresh)
	assert.True(t, errx.IsCode(err, ErrMalformed))
}

func TestVerify_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	old := newIssuer(t, WithClock(func() time.Time { return past }))
	raw, err := old.IssueAccessToken(staffClaims())
	require.NoError(t, err)

	_, err = newIssuer(t).Verify(raw, Access)
	assert.True(t, errx.IsCode(err, ErrExpired))
}

func TestVerify_TamperedAndGarbage(t *testing.T) {
	i := newIssuer(t)
	raw, err := i.IssueAccessToken(staffClaims())
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "AA"

	for _, bad := range []string{"", "not-a-jwt", strings.Join(parts, ".")} {
		_, err := i.Verify(bad, Access)
		assert.True(t, errx.IsCode(err, ErrMalformed), bad)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	i := newIssuer(t)
	c := jwtClaims{Claims: staffClaims(), RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "propcore-test",
		Audience:  jwt.ClaimStrings{Access.audience()},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = i.Verify(raw, Access)
	assert.True(t, errx.IsCode(err, ErrMalformed))
}

func TestIssue_TokensAreUnique(t *testing.T) {
	i := newIssuer(t)
	c := staffClaims()
	a, err := i.IssueRefreshToken(c)
	require.NoError(t, err)
	b, err := i.IssueRefreshToken(c)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewIssuer_RejectsWeakSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	_, err := NewIssuer(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.AccessSecret = ""
	_, err = NewIssuer(cfg)
	assert.Error(t, err)
}

func TestIssue_RejectsUnknownUserType(t *testing.T) {
	_, err := newIssuer(t).IssueAccessToken(Claims{UserID: kernel.NewUserID(), UserType: "root"})
	assert.Error(t, err)
}
