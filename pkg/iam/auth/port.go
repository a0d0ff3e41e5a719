package auth

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type PasswordService interface {
	Hash(plain string) (string, error)
	// Compare returns ErrInvalidCredentials on mismatch.
	Compare(hash, plain string) error
}

// AuditService records security-relevant events.
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, method string, success bool, ip, userAgent string)
	LogLogout(ctx context.Context, ip string)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, success bool, ip string)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, userType kernel.UserType, method, ip string)
	LogInviteCreated(ctx context.Context, inviteID kernel.InviteID, invitedBy kernel.UserID, role kernel.UserType)
}
