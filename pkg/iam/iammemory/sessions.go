package iammemory

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, sess *session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess.PK = r.s.nextID()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = r.s.now()
	}
	put(ctx, r.s.t.sessions, sess.PK, *sess)
	return nil
}

func (r sessionRepo) Consume(ctx context.Context, userPK kernel.UserPK, hash string) (*session.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for pk, sess := range r.s.t.sessions {
		if sess.UserPK == userPK && sess.TokenHash == hash {
			remove(ctx, r.s.t.sessions, pk)
			if sess.IsExpired(r.s.now()) {
				return nil, session.ErrRegistry.New(session.ErrSessionNotFound)
			}
			return &sess, nil
		}
	}
	return nil, session.ErrRegistry.New(session.ErrSessionNotFound)
}

func (r sessionRepo) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for pk, sess := range r.s.t.sessions {
		if sess.TokenHash == hash {
			remove(ctx, r.s.t.sessions, pk)
			n++
		}
	}
	return n, nil
}

func (r sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for pk, sess := range r.s.t.sessions {
		if sess.IsExpired(now) {
			remove(ctx, r.s.t.sessions, pk)
			n++
		}
	}
	return n, nil
}
