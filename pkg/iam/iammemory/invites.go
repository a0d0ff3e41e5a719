package iammemory

import (
	"context"
	"time"

	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type inviteRepo struct{ s *Store }

func (r inviteRepo) Create(ctx context.Context, inv *invitation.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.t.invites {
		if existing.Token == inv.Token || existing.ID == inv.ID {
			return invitation.ErrRegistry.New(invitation.ErrPendingExists)
		}
	}
	inv.PK = kernel.InvitePK(r.s.nextID())
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.s.now()
	}
	put(ctx, r.s.t.invites, inv.PK, *inv)
	return nil
}

func (r inviteRepo) FindByToken(_ context.Context, token string) (*invitation.Invite, error) {
	return r.find(func(inv invitation.Invite) bool { return token != "" && inv.Token == token })
}

func (r inviteRepo) FindByID(_ context.Context, id kernel.InviteID) (*invitation.Invite, error) {
	return r.find(func(inv invitation.Invite) bool { return inv.ID == id })
}

// LockContact is a no-op. WithinTx already serializes units of work.
func (r inviteRepo) LockContact(context.Context, kernel.OrganizationPK, *string, *string) error {
	return nil
}

func (r inviteRepo) ExistsPending(_ context.Context, orgPK kernel.OrganizationPK, email, phone *string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.t.invites {
		if inv.OrganizationPK != orgPK || !inv.IsPending(now) {
			continue
		}
		if (email != nil && sameEmail(inv.Email, *email)) || (phone != nil && samePhone(inv.Phone, *phone)) {
			return true, nil
		}
	}
	return false, nil
}

func (r inviteRepo) ListPending(_ context.Context, orgPK kernel.OrganizationPK, now time.Time) ([]*invitation.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*invitation.Invite
	for _, inv := range r.s.t.invites {
		if inv.OrganizationPK == orgPK && inv.IsPending(now) {
			inv := inv
			out = append(out, &inv)
		}
	}
	sortBy(out, func(i *invitation.Invite) int64 { return int64(i.PK) })
	return out, nil
}

func (r inviteRepo) MarkAccepted(ctx context.Context, pk kernel.InvitePK, by kernel.UserPK, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.t.invites[pk]
	if !ok || inv.AcceptedAt != nil {
		return invitation.ErrRegistry.New(invitation.ErrAlreadyAccepted)
	}
	inv.AcceptedAt = &at
	inv.AcceptedBy = &by
	put(ctx, r.s.t.invites, pk, inv)
	return nil
}

func (r inviteRepo) Delete(ctx context.Context, pk kernel.InvitePK) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.t.invites[pk]
	if !ok {
		return invitation.ErrRegistry.New(invitation.ErrNotFound)
	}
	if inv.AcceptedAt != nil {
		return invitation.ErrRegistry.New(invitation.ErrAlreadyAccepted)
	}
	remove(ctx, r.s.t.invites, pk)
	return nil
}

func (r inviteRepo) find(match func(invitation.Invite) bool) (*invitation.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.t.invites {
		if match(inv) {
			return &inv, nil
		}
	}
	return nil, invitation.ErrRegistry.New(invitation.ErrNotFound)
}

// ExpireInvite moves an invite's expiry into the past.
func (s *Store) ExpireInvite(pk kernel.InvitePK) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.t.invites[pk]; ok {
		inv.ExpiresAt = s.now().Add(-time.Second)
		s.t.invites[pk] = inv
	}
}

func (r inviteRepo) CountExpiredPending(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, inv := range r.s.t.invites {
		if !inv.IsAccepted() && inv.IsExpired(now) {
			n++
		}
	}
	return n, nil
}
