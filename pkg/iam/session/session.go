package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

// Session is one refresh-token lineage for a user. Only the keyed hash of
// the current refresh token is stored.
type Session struct {
	PK        int64         `db:"id"`
	UserPK    kernel.UserPK `db:"user_id"`
	TokenHash string        `db:"token_hash"`
	UserAgent string        `db:"user_agent"`
	IPAddress string        `db:"ip_address"`
	ExpiresAt time.Time     `db:"expires_at"`
	CreatedAt time.Time     `db:"created_at"`
}

func (s *Session) IsExpired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Device describes the client a session was opened from.
type Device struct {
	UserAgent string
	IPAddress string
}

// Repository persists sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	// Consume atomically deletes and returns the session matching userPK
	// and hash. At most one concurrent caller receives the row; the rest get
	// ErrSessionNotFound.
	Consume(ctx context.Context, userPK kernel.UserPK, hash string) (*Session, error)
	DeleteByHash(ctx context.Context, hash string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Hasher derives the stored form of a refresh token.
type Hasher struct {
	key []byte
}

func NewHasher(secret string) *Hasher { return &Hasher{key: []byte(secret)} }

func (h *Hasher) Hash(raw string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

var ErrRegistry = errx.NewRegistry("SESSION")

var (
	ErrInvalidToken    = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthentication, 0, "Invalid or expired refresh token")
	ErrUserNotFound    = ErrRegistry.Register("USER_NOT_FOUND", errx.TypeAuthentication, 0, "Invalid or expired refresh token")
	ErrSessionNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeAuthentication, 0, "Invalid or expired refresh token")
)
