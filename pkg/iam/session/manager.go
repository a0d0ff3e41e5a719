package session

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

// Tokens is the pair handed to a client when a session starts or rotates.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	Claims           token.Claims
	UserPK           kernel.UserPK
}

type Manager struct {
	issuer *token.Issuer
	ids    *identity.Resolver
	repo   Repository
	hasher *Hasher
	now    func() time.Time
}

func NewManager(issuer *token.Issuer, ids *identity.Resolver, repo Repository, hasher *Hasher) *Manager {
	return &Manager{issuer: issuer, ids: ids, repo: repo, hasher: hasher, now: time.Now}
}

// Start issues a token pair for claims and persists a new session.
func (m *Manager) Start(ctx context.Context, userPK kernel.UserPK, claims token.Claims, device Device) (*Tokens, error) {
	access, err := m.issuer.IssueAccessToken(claims)
	if err != nil {
		return nil, err
	}
	refresh, err := m.issuer.IssueRefreshToken(claims)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		UserPK:    userPK,
		TokenHash: m.hasher.Hash(refresh),
		UserAgent: device.UserAgent,
		IPAddress: device.IPAddress,
		ExpiresAt: now.Add(m.issuer.TTL(token.Refresh)),
		CreatedAt: now,
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, errx.Wrap(err, "failed to persist session", errx.TypeInternal)
	}

	return &Tokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: s.ExpiresAt,
		Claims:           claims,
		UserPK:           userPK,
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token is
// consumed whether or not the new pair is issued, so replaying it fails.
func (m *Manager) Rotate(ctx context.Context, raw string, device Device) (*Tokens, error) {
	claims, err := m.issuer.Verify(raw, token.Refresh)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrInvalidToken, err)
	}

	userPK, err := m.ids.ResolveUser(ctx, claims.UserID)
	if err != nil {
		if errx.IsCode(err, identity.ErrNotFound) {
			return nil, ErrRegistry.NewWithCause(ErrUserNotFound, err)
		}
		return nil, err
	}

	consumed, err := m.repo.Consume(ctx, userPK, m.hasher.Hash(raw))
	if err != nil {
		if errx.IsCode(err, ErrSessionNotFound) {
			logx.WithFields(logx.Fields{"user_id": claims.UserID}).
				Warn("refresh token presented without a live session")
		}
		return nil, err
	}
	if consumed.IsExpired(m.now()) {
		return nil, ErrRegistry.New(ErrSessionNotFound)
	}

	return m.Start(ctx, userPK, *claims, device)
}

// Logout deletes every session holding the token. Unknown, empty and
// already revoked tokens succeed.
func (m *Manager) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if _, err := m.repo.DeleteByHash(ctx, m.hasher.Hash(raw)); err != nil {
		return errx.Wrap(err, "failed to delete session", errx.TypeInternal)
	}
	return nil
}

// Sweep removes expired sessions and returns how many were deleted.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}
