package invitation

import "github.com/Abraxas-365/propcore/pkg/errx"

var ErrRegistry = errx.NewRegistry("INVITE")

var (
	ErrNotFound          = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 0, "Invite not found")
	ErrAlreadyAccepted   = ErrRegistry.Register("ALREADY_ACCEPTED", errx.TypeConflict, 0, "Invite has already been accepted")
	ErrExpired           = ErrRegistry.Register("EXPIRED", errx.TypeGone, 0, "Invite has expired")
	ErrPendingExists     = ErrRegistry.Register("PENDING_EXISTS", errx.TypeConflict, 0, "A pending invite already exists for this contact")
	ErrContactTaken      = ErrRegistry.Register("CONTACT_TAKEN", errx.TypeConflict, 0, "A user with this contact already exists")
	ErrInvalidRequest    = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, 0, "Invalid invite request")
	ErrPropertyRequired  = ErrRegistry.Register("PROPERTY_REQUIRED", errx.TypeValidation, 0, "This role requires a property")
	ErrRoleNotInvitable  = ErrRegistry.Register("ROLE_NOT_INVITABLE", errx.TypeValidation, 0, "This role cannot be invited")
	ErrOrganizationScope = ErrRegistry.Register("ORGANIZATION_REQUIRED", errx.TypeAuthorization, 0, "Inviter has no organization")
)
