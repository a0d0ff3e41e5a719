package authinfra

import (
	"context"

	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/Abraxas-365/propcore/pkg/logx"
)

// LogxAuditService writes audit events as structured log entries.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(_ context.Context, userID kernel.UserID, method string, success bool, ip, userAgent string) {
	entry := logx.WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"user_id":     userID,
		"method":      method,
		"success":     success,
		"ip":          ip,
		"user_agent":  userAgent,
	})
	if success {
		entry.Info("Audit: login succeeded")
		return
	}
	entry.Warn("Audit: login failed")
}

func (s *LogxAuditService) LogLogout(_ context.Context, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "logout",
		"ip":          ip,
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(_ context.Context, userID kernel.UserID, success bool, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"success":     success,
		"ip":          ip,
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, userType kernel.UserType, method, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"user_type":   userType,
		"method":      method,
		"ip":          ip,
	}).Info("Audit: account created")
}

func (s *LogxAuditService) LogInviteCreated(_ context.Context, inviteID kernel.InviteID, invitedBy kernel.UserID, role kernel.UserType) {
	logx.WithFields(logx.Fields{
		"audit_event": "invite_created",
		"invite_id":   inviteID,
		"invited_by":  invitedBy,
		"role":        role,
	}).Info("Audit: invite created")
}
