package invitation

import (
	"strings"

	"github.com/Abraxas-365/propcore/pkg/iam/user"
	"github.com/Abraxas-365/propcore/pkg/kernel"
)

type CreateRequest struct {
	Role            kernel.UserType         `json:"role"`
	Email           string                  `json:"email,omitempty"`
	Phone           string                  `json:"phone,omitempty"`
	PropertyID      *kernel.PropertyID      `json:"propertyId,omitempty"`
	MaintenanceRole *kernel.MaintenanceRole `json:"maintenanceRole,omitempty"`
	UnitNumber      *string                 `json:"unitNumber,omitempty"`
}

func (r CreateRequest) Contact() user.Contact {
	return user.NormalizeContact(r.Email, r.Phone)
}

// Validate checks the role-dependent shape of the request.
func (r CreateRequest) Validate() error {
	if err := r.Contact().Validate(); err != nil {
		return err
	}

	hasProperty := r.PropertyID != nil && !r.PropertyID.IsEmpty()
	hasUnit := r.UnitNumber != nil && strings.TrimSpace(*r.UnitNumber) != ""

	switch r.Role {
	case kernel.UserTypeOrgAdmin:
		if hasProperty || r.MaintenanceRole != nil || hasUnit {
			return invalid("org_admin invites cannot carry property, maintenanceRole or unitNumber")
		}
	case kernel.UserTypeStaff:
		if !hasProperty {
			return ErrRegistry.New(ErrPropertyRequired)
		}
		if r.MaintenanceRole == nil || !r.MaintenanceRole.Valid() {
			return invalid("staff invites require maintenanceRole manager or member")
		}
		if hasUnit {
			return invalid("staff invites cannot carry unitNumber")
		}
	case kernel.UserTypeTenant:
		if !hasProperty {
			return ErrRegistry.New(ErrPropertyRequired)
		}
		if r.MaintenanceRole != nil {
			return invalid("tenant invites cannot carry maintenanceRole")
		}
	case kernel.UserTypeOrgOwner:
		return ErrRegistry.New(ErrRoleNotInvitable)
	default:
		return ErrRegistry.New(ErrRoleNotInvitable).WithDetail("role", string(r.Role))
	}
	return nil
}

// Delivery selects which channels carry the invite. A channel is only
// used when the invite has that contact.
type Delivery struct {
	Email bool
	SMS   bool
}

func DefaultDelivery() Delivery { return Delivery{Email: true, SMS: true} }

type AcceptRequest struct {
	Name       string  `json:"name"`
	Password   string  `json:"password"`
	UnitNumber *string `json:"unitNumber,omitempty"`
}

func (r AcceptRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

func invalid(msg string) error {
	return ErrRegistry.NewWithMessage(ErrInvalidRequest, msg)
}
