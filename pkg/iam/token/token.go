// Package token issues and verifies the signed access and refresh tokens.
// Both kinds are HS256 JWTs signed with distinct secrets.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

func (k Kind) audience() string { return "propcore-" + k.String() }

// Claims is the identity a token asserts. Only opaque identifiers.
type Claims struct {
	UserID         kernel.UserID          `json:"userId"`
	UserType       kernel.UserType        `json:"userType"`
	OrganizationID *kernel.OrganizationID `json:"organizationId,omitempty"`
	PropertyID     *kernel.PropertyID     `json:"propertyId,omitempty"`
}

func (c Claims) AuthContext() *kernel.AuthContext {
	return &kernel.AuthContext{
		UserID:         c.UserID,
		UserType:       c.UserType,
		OrganizationID: c.OrganizationID,
		PropertyID:     c.PropertyID,
	}
}

type jwtClaims struct {
	Claims
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type Issuer struct {
	keys   map[Kind][]byte
	ttls   map[Kind]time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the clock used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer fails when a secret is empty or both secrets are equal.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errx.Validation("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errx.Validation("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errx.Validation("token lifetimes must be positive")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "propcore"
	}

	i := &Issuer{
		keys:   map[Kind][]byte{Access: []byte(cfg.AccessSecret), Refresh: []byte(cfg.RefreshSecret)},
		ttls:   map[Kind]time.Duration{Access: cfg.AccessTTL, Refresh: cfg.RefreshTTL},
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) TTL(kind Kind) time.Duration { return i.ttls[kind] }

func (i *Issuer) IssueAccessToken(c Claims) (string, error) { return i.issue(c, Access) }

func (i *Issuer) IssueRefreshToken(c Claims) (string, error) { return i.issue(c, Refresh) }

func (i *Issuer) issue(c Claims, kind Kind) (string, error) {
	if c.UserID.IsEmpty() || !c.UserType.Valid() {
		return "", errx.Validation("claims need a user id and a known user type")
	}

	now := i.now()
	claims := jwtClaims{
		Claims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   c.UserID.String(),
			Audience:  jwt.ClaimStrings{kind.audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttls[kind])),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.keys[kind])
	if err != nil {
		return "", errx.Wrap(err, "failed to sign token", errx.TypeInternal)
	}
	return signed, nil
}

// Verify checks signature, algorithm, audience, issuer and expiry for the
// given kind. It fails with ErrExpired or ErrMalformed.
func (i *Issuer) Verify(raw string, kind Kind) (*Claims, error) {
	if raw == "" {
		return nil, ErrRegistry.New(ErrMalformed)
	}

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.keys[kind], nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(kind.audience()),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRegistry.NewWithCause(ErrExpired, err)
		}
		return nil, ErrRegistry.NewWithCause(ErrMalformed, err)
	}

	if claims.UserID.IsEmpty() || !claims.UserType.Valid() {
		return nil, ErrRegistry.New(ErrMalformed)
	}
	return &claims.Claims, nil
}

var ErrRegistry = errx.NewRegistry("TOKEN")

var (
	ErrExpired   = ErrRegistry.Register("EXPIRED", errx.TypeAuthentication, 0, "Token has expired")
	ErrMalformed = ErrRegistry.Register("MALFORMED", errx.TypeAuthentication, 0, "Token is invalid")
)
