package auth

import (
	"strings"
	"unicode"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/org"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/iam/user"
)

// ============================================================================
// Requests
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

func (r LoginRequest) Contact() user.Contact { return user.NormalizeContact(r.Email, r.Phone) }

// RegisterRequest creates an organization together with its owner.
type RegisterRequest struct {
	OrganizationName string `json:"organizationName"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Password         string `json:"password"`
}

func (r RegisterRequest) Contact() user.Contact { return user.NormalizeContact(r.Email, r.Phone) }

func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.OrganizationName) == "" {
		return ErrRegistry.NewWithMessage(ErrInvalidRequest, "organizationName is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrRegistry.NewWithMessage(ErrInvalidRequest, "name is required")
	}
	if err := r.Contact().Validate(); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

// ============================================================================
// Results
// ============================================================================

// Profile is the actor together with the scope their claims carry.
type Profile struct {
	User         *user.User
	Organization *org.Organization
	Properties   []*org.Property
	Property     *org.Property
}

type Result struct {
	Tokens  *session.Tokens
	Profile *Profile
}

type Response struct {
	AccessToken  string               `json:"accessToken,omitempty"`
	User         user.DTO             `json:"user"`
	Organization *org.OrganizationDTO `json:"organization,omitempty"`
	Properties   []org.PropertyDTO    `json:"properties,omitempty"`
	Property     *org.PropertyDTO     `json:"property,omitempty"`
}

func (p *Profile) Response(accessToken string) Response {
	resp := Response{AccessToken: accessToken, User: p.User.ToDTO()}
	if p.Organization != nil {
		dto := p.Organization.ToDTO()
		resp.Organization = &dto
	}
	for _, prop := range p.Properties {
		resp.Properties = append(resp.Properties, prop.ToDTO())
	}
	if p.Property != nil {
		dto := p.Property.ToDTO()
		resp.Property = &dto
	}
	return resp
}

// ============================================================================
// Password policy
// ============================================================================

const MinPasswordLength = 8

// ValidatePassword requires MinPasswordLength characters including an
// upper-case letter, a lower-case letter, a digit and a symbol.
func ValidatePassword(p string) error {
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	var missing []string
	if len([]rune(p)) < MinPasswordLength {
		missing = append(missing, "length")
	}
	if !upper {
		missing = append(missing, "uppercase")
	}
	if !lower {
		missing = append(missing, "lowercase")
	}
	if !digit {
		missing = append(missing, "digit")
	}
	if !symbol {
		missing = append(missing, "symbol")
	}
	if len(missing) > 0 {
		return ErrRegistry.New(ErrWeakPassword).WithDetail("missing", missing)
	}
	return nil
}

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	ErrInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthentication, 0, "Invalid credentials")
	ErrWeakPassword       = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, 0,
		"Password must be at least 8 characters and include upper and lower case letters, a digit and a symbol")
	ErrInvalidRequest = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, 0, "Invalid request")
)
