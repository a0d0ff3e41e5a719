package accessapi

import (
	"strings"

	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/access"
	"github.com/Abraxas-365/propcore/pkg/iam/token"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const (
	localsAuth  = "auth"
	localsGrant = "grant"

	ParamOrganization = "organizationId"
	ParamProperty     = "propertyId"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var ErrMissingToken = ErrRegistry.Register("MISSING_TOKEN", errx.TypeAuthentication, 0, "Authentication required")

// Middleware authenticates bearer tokens and enforces route requirements.
type Middleware struct {
	issuer   *token.Issuer
	resolver *access.Resolver
}

func NewMiddleware(issuer *token.Issuer, resolver *access.Resolver) *Middleware {
	return &Middleware{issuer: issuer, resolver: resolver}
}

// Authenticate verifies the access token and stores the claims on the
// request.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return ErrRegistry.New(ErrMissingToken)
		}

		claims, err := m.issuer.Verify(raw, token.Access)
		if err != nil {
			return err
		}

		ac := claims.AuthContext()
		c.Locals(localsAuth, ac)
		c.SetUserContext(kernel.WithAuthContext(c.UserContext(), ac))
		return c.Next()
	}
}

// Require authorizes the authenticated actor against req, scoped by the
// organizationId and propertyId path parameters when the route has them.
func (m *Middleware) Require(req access.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, ok := GetAuthContext(c)
		if !ok {
			return ErrRegistry.New(ErrMissingToken)
		}

		grant, err := m.resolver.Authorize(c.UserContext(), ac, req, ScopeFromPath(c))
		if err != nil {
			return err
		}
		c.Locals(localsGrant, grant)
		return c.Next()
	}
}

func ScopeFromPath(c *fiber.Ctx) access.Scope {
	var scope access.Scope
	if v := c.Params(ParamOrganization); v != "" {
		id := kernel.OrganizationID(v)
		scope.OrganizationID = &id
	}
	if v := c.Params(ParamProperty); v != "" {
		id := kernel.PropertyID(v)
		scope.PropertyID = &id
	}
	return scope
}

func GetAuthContext(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	ac, ok := c.Locals(localsAuth).(*kernel.AuthContext)
	return ac, ok && ac != nil
}

func GetGrant(c *fiber.Ctx) (*access.Grant, bool) {
	g, ok := c.Locals(localsGrant).(*access.Grant)
	return g, ok && g != nil
}

func bearer(header string) (string, bool) {
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
