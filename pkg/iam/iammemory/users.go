package iammemory

import (
	"context"
	"strings"

	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type userRepo struct{ s *Store }

func sameEmail(a *string, b string) bool {
	return a != nil && b != "" && strings.EqualFold(*a, b)
}

func samePhone(a *string, b string) bool {
	return a != nil && b != "" && *a == b
}

func (r userRepo) Create(ctx context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.t.users {
		if existing.ID == u.ID ||
			(u.Email != nil && sameEmail(existing.Email, *u.Email)) ||
			(u.Phone != nil && samePhone(existing.Phone, *u.Phone)) {
			return user.ErrRegistry.New(user.ErrUserExists)
		}
	}
	u.PK = kernel.UserPK(r.s.nextID())
	u.CreatedAt = r.s.now()
	put(ctx, r.s.t.users, u.PK, *u)
	return nil
}

func (r userRepo) FindByPK(_ context.Context, pk kernel.UserPK) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.t.users[pk]
	if !ok || u.ArchivedAt != nil {
		return nil, user.NotFound()
	}
	return &u, nil
}

func (r userRepo) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	return r.find(func(u user.User) bool { return u.ID == id })
}

func (r userRepo) FindByContact(_ context.Context, c user.Contact) (*user.User, error) {
	return r.find(func(u user.User) bool {
		if c.Email != "" {
			return sameEmail(u.Email, c.Email)
		}
		return samePhone(u.Phone, c.Phone)
	})
}

func (r userRepo) ExistsByContact(_ context.Context, c user.Contact) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.t.users {
		if sameEmail(u.Email, c.Email) || samePhone(u.Phone, c.Phone) {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) find(match func(user.User) bool) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.t.users {
		if u.ArchivedAt == nil && match(u) {
			return &u, nil
		}
	}
	return nil, user.NotFound()
}

// ============================================================================
// Organizations and properties
// ============================================================================

type orgRepo struct{ s *Store }

func (r orgRepo) Create(ctx context.Context, o *org.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.t.orgs {
		if strings.EqualFold(existing.Name, o.Name) {
			return org.ErrRegistry.New(org.ErrOrganizationExists)
		}
	}
	o.PK = kernel.OrganizationPK(r.s.nextID())
	o.CreatedAt = r.s.now()
	put(ctx, r.s.t.orgs, o.PK, *o)
	return nil
}

func (r orgRepo) FindByPK(_ context.Context, pk kernel.OrganizationPK) (*org.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.t.orgs[pk]
	if !ok {
		return nil, org.ErrRegistry.New(org.ErrOrganizationNotFound)
	}
	return &o, nil
}

func (r orgRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.t.orgs {
		if strings.EqualFold(o.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type propertyRepo struct{ s *Store }

func (r propertyRepo) Create(ctx context.Context, p *org.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.orgs[p.OrganizationPK]; !ok {
		return org.ErrRegistry.New(org.ErrOrganizationNotFound)
	}
	p.PK = kernel.PropertyPK(r.s.nextID())
	p.CreatedAt = r.s.now()
	put(ctx, r.s.t.props, p.PK, *p)
	return nil
}

func (r propertyRepo) FindByPK(_ context.Context, pk kernel.PropertyPK) (*org.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.t.props[pk]
	if !ok || p.ArchivedAt != nil {
		return nil, org.ErrRegistry.New(org.ErrPropertyNotFound)
	}
	return &p, nil
}

func (r propertyRepo) ListByOrganization(_ context.Context, orgPK kernel.OrganizationPK) ([]*org.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*org.Property
	for _, p := range r.s.t.props {
		if p.OrganizationPK == orgPK && p.ArchivedAt == nil {
			p := p
			out = append(out, &p)
		}
	}
	sortBy(out, func(p *org.Property) int64 { return int64(p.PK) })
	return out, nil
}

// ArchiveProperty soft-deletes a property.
func (s *Store) ArchiveProperty(pk kernel.PropertyPK) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.t.props[pk]; ok {
		now := s.now()
		p.ArchivedAt = &now
		s.t.props[pk] = p
	}
}
