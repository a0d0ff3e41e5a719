package iammemory

import (
	"context"
	"sort"

	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type membershipRepo struct{ s *Store }

func notMember() error { return org.ErrRegistry.New(org.ErrMembershipNotFound) }

func (r membershipRepo) CreateOrgAdmin(ctx context.Context, link *org.OrgAdmin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.orgAdmins[link.UserPK]; ok {
		return org.ErrRegistry.New(org.ErrMembershipExists)
	}
	link.CreatedAt = r.s.now()
	put(ctx, r.s.t.orgAdmins, link.UserPK, *link)
	return nil
}

func (r membershipRepo) FindOrgAdmin(_ context.Context, userPK kernel.UserPK) (*org.OrgAdmin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link, ok := r.s.t.orgAdmins[userPK]
	if !ok {
		return nil, notMember()
	}
	return &link, nil
}

func (r membershipRepo) CreateStaff(ctx context.Context, link *org.PropertyStaff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := linkKey{link.UserPK, link.PropertyPK}
	if _, ok := r.s.t.staff[key]; ok {
		return org.ErrRegistry.New(org.ErrMembershipExists)
	}
	link.CreatedAt = r.s.now()
	put(ctx, r.s.t.staff, key, *link)
	return nil
}

func (r membershipRepo) FindStaff(_ context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*org.PropertyStaff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link, ok := r.s.t.staff[linkKey{userPK, propertyPK}]
	if !ok || link.ArchivedAt != nil {
		return nil, notMember()
	}
	return &link, nil
}

func (r membershipRepo) ListStaff(_ context.Context, userPK kernel.UserPK) ([]*org.PropertyStaff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*org.PropertyStaff
	for key, link := range r.s.t.staff {
		if key.user == userPK && link.ArchivedAt == nil && r.s.liveProperty(key.property) {
			link := link
			out = append(out, &link)
		}
	}
	sortBy(out, func(l *org.PropertyStaff) int64 { return int64(l.PropertyPK) })
	return out, nil
}

func (r membershipRepo) CountStaffInOrganization(_ context.Context, userPK kernel.UserPK, orgPK kernel.OrganizationPK) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for key, link := range r.s.t.staff {
		if key.user != userPK || link.ArchivedAt != nil {
			continue
		}
		if p, ok := r.s.t.props[key.property]; ok && p.ArchivedAt == nil && p.OrganizationPK == orgPK {
			n++
		}
	}
	return n, nil
}

func (r membershipRepo) CreateTenancy(ctx context.Context, link *org.Tenancy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := linkKey{link.UserPK, link.PropertyPK}
	if _, ok := r.s.t.tenancies[key]; ok {
		return org.ErrRegistry.New(org.ErrMembershipExists)
	}
	link.CreatedAt = r.s.now()
	put(ctx, r.s.t.tenancies, key, *link)
	return nil
}

func (r membershipRepo) FindTenancy(_ context.Context, userPK kernel.UserPK, propertyPK kernel.PropertyPK) (*org.Tenancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link, ok := r.s.t.tenancies[linkKey{userPK, propertyPK}]
	if !ok || link.ArchivedAt != nil {
		return nil, notMember()
	}
	return &link, nil
}

func (r membershipRepo) ListTenancies(_ context.Context, userPK kernel.UserPK) ([]*org.Tenancy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*org.Tenancy
	for key, link := range r.s.t.tenancies {
		if key.user == userPK && link.ArchivedAt == nil && r.s.liveProperty(key.property) {
			link := link
			out = append(out, &link)
		}
	}
	// Most recent first.
	sortBy(out, func(l *org.Tenancy) int64 { return -l.CreatedAt.UnixNano() })
	return out, nil
}

// ArchiveStaff soft-deletes a staff link.
func (s *Store) ArchiveStaff(userPK kernel.UserPK, propertyPK kernel.PropertyPK) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := linkKey{userPK, propertyPK}
	if link, ok := s.t.staff[key]; ok {
		now := s.now()
		link.ArchivedAt = &now
		s.t.staff[key] = link
	}
}

func (s *Store) liveProperty(pk kernel.PropertyPK) bool {
	p, ok := s.t.props[pk]
	return ok && p.ArchivedAt == nil
}

func sortBy[T any](items []T, key func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
