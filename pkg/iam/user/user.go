package user

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/ptrx"
)

// User is an authenticating actor. Users are archived, never deleted.
type User struct {
	PK           kernel.UserPK   `db:"id" json:"-"`
	ID           kernel.UserID   `db:"public_id"`
	Name         string          `db:"name"`
	Email        *string         `db:"email"`
	Phone        *string         `db:"phone"`
	PasswordHash string          `db:"password_hash" json:"-"`
	UserType     kernel.UserType `db:"user_type"`
	ArchivedAt   *time.Time      `db:"archived_at"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (u *User) IsArchived() bool { return u.ArchivedAt != nil }

// DTO is the public shape of a user.
type DTO struct {
	ID        kernel.UserID   `json:"id"`
	Name      string          `json:"name"`
	Email     *string         `json:"email,omitempty"`
	Phone     *string         `json:"phone,omitempty"`
	UserType  kernel.UserType `json:"userType"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (u *User) ToDTO() DTO {
	return DTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		UserType:  u.UserType,
		CreatedAt: u.CreatedAt,
	}
}

// Contact is exactly one of an email address or a phone number.
type Contact struct {
	Email string
	Phone string
}

// NormalizeContact trims both values and lower-cases the email.
func NormalizeContact(email, phone string) Contact {
	return Contact{
		Email: strings.ToLower(strings.TrimSpace(email)),
		Phone: strings.TrimSpace(phone),
	}
}

// Validate enforces the exactly-one rule.
func (c Contact) Validate() error {
	switch {
	case c.Email == "" && c.Phone == "":
		return ErrRegistry.New(ErrContactRequired)
	case c.Email != "" && c.Phone != "":
		return ErrRegistry.New(ErrContactAmbiguous)
	case c.Email != "" && !strings.Contains(c.Email, "@"):
		return ErrRegistry.New(ErrInvalidEmail).WithDetail("email", c.Email)
	}
	return nil
}

func (c Contact) EmailPtr() *string { return ptrx.NonZero(c.Email) }

func (c Contact) PhonePtr() *string { return ptrx.NonZero(c.Phone) }

// Repository persists users. Find methods fail with ErrUserNotFound and
// skip archived users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByPK(ctx context.Context, pk kernel.UserPK) (*User, error)
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByContact(ctx context.Context, c Contact) (*User, error)
	ExistsByContact(ctx context.Context, c Contact) (bool, error)
}

var ErrRegistry = errx.NewRegistry("USER")

var (
	ErrUserNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 0, "User not found")
	ErrUserExists       = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, 0, "A user with this contact already exists")
	ErrContactRequired  = ErrRegistry.Register("CONTACT_REQUIRED", errx.TypeValidation, 0, "Either email or phone is required")
	ErrContactAmbiguous = ErrRegistry.Register("CONTACT_AMBIGUOUS", errx.TypeValidation, 0, "Provide either email or phone, not both")
	ErrInvalidEmail     = ErrRegistry.Register("INVALID_EMAIL", errx.TypeValidation, 0, "Invalid email address")
)

func NotFound() *errx.Error { return ErrRegistry.New(ErrUserNotFound) }
