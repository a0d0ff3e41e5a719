// Package identity maps opaque identifiers to internal store keys. An
// unknown identifier and a malformed one are indistinguishable to callers.
package identity

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type Kind string

const (
	KindUser         Kind = "user"
	KindOrganization Kind = "organization"
	KindProperty     Kind = "property"
)

func (k Kind) Valid() bool {
	return k == KindUser || k == KindOrganization || k == KindProperty
}

// Lookup is the store-side half of resolution. Implementations return
// ErrNotFound when no live entity has the identifier.
type Lookup interface {
	LookupInternalID(ctx context.Context, kind Kind, opaque string) (int64, error)
}

var ErrRegistry = errx.NewRegistry("IDENTITY")

var ErrNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 0, "Resource not found")

func NotFound(kind Kind) *errx.Error {
	return ErrRegistry.New(ErrNotFound).WithDetail("kind", string(kind))
}

type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve returns the internal key for opaque. Malformed input never
// reaches the store.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, opaque string) (int64, error) {
	if !kind.Valid() || !kernel.ValidOpaqueID(opaque) {
		return 0, NotFound(kind)
	}
	return r.lookup.LookupInternalID(ctx, kind, opaque)
}

func (r *Resolver) ResolveUser(ctx context.Context, id kernel.UserID) (kernel.UserPK, error) {
	pk, err := r.Resolve(ctx, KindUser, id.String())
	return kernel.UserPK(pk), err
}

func (r *Resolver) ResolveOrganization(ctx context.Context, id kernel.OrganizationID) (kernel.OrganizationPK, error) {
	pk, err := r.Resolve(ctx, KindOrganization, id.String())
	return kernel.OrganizationPK(pk), err
}

func (r *Resolver) ResolveProperty(ctx context.Context, id kernel.PropertyID) (kernel.PropertyPK, error) {
	pk, err := r.Resolve(ctx, KindProperty, id.String())
	return kernel.PropertyPK(pk), err
}
