// Package iammemory is an in-process identity store. It backs the service
// in STORE_DRIVER=memory mode and the service tests.
package iammemory

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/propcore/pkg/iam/identity"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type linkKey struct {
	user     kernel.UserPK
	property kernel.PropertyPK
}

type tables struct {
	seq       int64
	users     map[kernel.UserPK]user.User
	orgs      map[kernel.OrganizationPK]org.Organization
	props     map[kernel.PropertyPK]org.Property
	orgAdmins map[kernel.UserPK]org.OrgAdmin
	staff     map[linkKey]org.PropertyStaff
	tenancies map[linkKey]org.Tenancy
	sessions  map[int64]session.Session
	invites   map[kernel.InvitePK]invitation.Invite
}

func newTables() tables {
	return tables{
		users:     map[kernel.UserPK]user.User{},
		orgs:      map[kernel.OrganizationPK]org.Organization{},
		props:     map[kernel.PropertyPK]org.Property{},
		orgAdmins: map[kernel.UserPK]org.OrgAdmin{},
		staff:     map[linkKey]org.PropertyStaff{},
		tenancies: map[linkKey]org.Tenancy{},
		sessions:  map[int64]session.Session{},
		invites:   map[kernel.InvitePK]invitation.Invite{},
	}
}

// Store holds every table behind one mutex. Rows are stored by value and
// copied on the way in and out.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables
	now  func() time.Time
}

func New() *Store {
	return &Store{t: newTables(), now: time.Now}
}

func (s *Store) nextID() int64 {
	s.t.seq++
	return s.t.seq
}

// WithinTx serializes units of work. Every write made through a context
// returned here is journaled, and a failing fn undoes exactly those writes.
// Reads outside a unit of work may observe its writes before it finishes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.mu.Lock()
		j.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

type txKey struct{}

// journal holds the undo steps of one unit of work, newest last.
type journal struct{ undo []func() }

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

// put sets m[k] and journals the previous row when ctx is inside a unit of
// work. Callers hold s.mu.
func put[K comparable, V any](ctx context.Context, m map[K]V, k K, v V) {
	remember(ctx, m, k)
	m[k] = v
}

// remove deletes m[k] under the same rules as put.
func remove[K comparable, V any](ctx context.Context, m map[K]V, k K) {
	remember(ctx, m, k)
	delete(m, k)
}

func remember[K comparable, V any](ctx context.Context, m map[K]V, k K) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	prev, existed := m[k]
	j.undo = append(j.undo, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

func (s *Store) Users() user.Repository                    { return userRepo{s} }
func (s *Store) Organizations() org.OrganizationRepository { return orgRepo{s} }
func (s *Store) Properties() org.PropertyRepository        { return propertyRepo{s} }
func (s *Store) Memberships() org.MembershipRepository     { return membershipRepo{s} }
func (s *Store) Sessions() session.Repository              { return sessionRepo{s} }
func (s *Store) Invites() invitation.Repository            { return inviteRepo{s} }
func (s *Store) Lookup() identity.Lookup                   { return lookup{s} }

// SessionCount returns the number of stored sessions for userPK.
func (s *Store) SessionCount(userPK kernel.UserPK) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.t.sessions {
		if sess.UserPK == userPK {
			n++
		}
	}
	return n
}

// SessionHashes returns the stored hashes for userPK.
func (s *Store) SessionHashes(userPK kernel.UserPK) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, sess := range s.t.sessions {
		if sess.UserPK == userPK {
			out = append(out, sess.TokenHash)
		}
	}
	return out
}

// ============================================================================
// Identity lookup
// ============================================================================

type lookup struct{ s *Store }

func (l lookup) LookupInternalID(_ context.Context, kind identity.Kind, opaque string) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	switch kind {
	case identity.KindUser:
		for pk, u := range l.s.t.users {
			if string(u.ID) == opaque && u.ArchivedAt == nil {
				return int64(pk), nil
			}
		}
	case identity.KindOrganization:
		for pk, o := range l.s.t.orgs {
			if string(o.ID) == opaque {
				return int64(pk), nil
			}
		}
	case identity.KindProperty:
		for pk, p := range l.s.t.props {
			if string(p.ID) == opaque && p.ArchivedAt == nil {
				return int64(pk), nil
			}
		}
	}
	return 0, identity.NotFound(kind)
}
