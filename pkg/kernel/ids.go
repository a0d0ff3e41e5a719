package kernel

import (
	"errors"

	"github.com/google/uuid"
)

// ============================================================================
// Opaque identifiers: random, safe for URLs, tokens and JSON.
// ============================================================================

type UserID string

func NewUserID() UserID          { return UserID(uuid.NewString()) }
func (id UserID) String() string { return string(id) }
func (id UserID) IsEmpty() bool  { return id == "" }

type OrganizationID string

func NewOrganizationID() OrganizationID  { return OrganizationID(uuid.NewString()) }
func (id OrganizationID) String() string { return string(id) }
func (id OrganizationID) IsEmpty() bool  { return id == "" }

type PropertyID string

func NewPropertyID() PropertyID      { return PropertyID(uuid.NewString()) }
func (id PropertyID) String() string { return string(id) }
func (id PropertyID) IsEmpty() bool  { return id == "" }

type InviteID string

func NewInviteID() InviteID        { return InviteID(uuid.NewString()) }
func (id InviteID) String() string { return string(id) }
func (id InviteID) IsEmpty() bool  { return id == "" }

// ============================================================================
// Internal identifiers: sequential store keys. They refuse to marshal so
// they cannot end up in a response body or token payload.
// ============================================================================

var ErrInternalIDExposed = errors.New("kernel: internal identifier must not be serialized")

type UserPK int64

func (UserPK) MarshalJSON() ([]byte, error) { return nil, ErrInternalIDExposed }

type OrganizationPK int64

func (OrganizationPK) MarshalJSON() ([]byte, error) { return nil, ErrInternalIDExposed }

type PropertyPK int64

func (PropertyPK) MarshalJSON() ([]byte, error) { return nil, ErrInternalIDExposed }

type InvitePK int64

func (InvitePK) MarshalJSON() ([]byte, error) { return nil, ErrInternalIDExposed }

// ValidOpaqueID reports whether s has the shape of an opaque identifier.
func ValidOpaqueID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
