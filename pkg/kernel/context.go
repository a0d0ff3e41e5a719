package kernel

import "context"

// AuthContext is the verified identity attached to a request. It only
// carries opaque identifiers.
type AuthContext struct {
	UserID         UserID          `json:"userId"`
	UserType       UserType        `json:"userType"`
	OrganizationID *OrganizationID `json:"organizationId,omitempty"`
	PropertyID     *PropertyID     `json:"propertyId,omitempty"`
}

func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.UserID.IsEmpty() && ac.UserType != ""
}

type ContextKey string

const (
	AuthContextKey ContextKey = "auth"
	RequestIDKey   ContextKey = "request_id"
)

func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, ac)
}

func AuthContextFrom(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return ac, ok && ac != nil
}
