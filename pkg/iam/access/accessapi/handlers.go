package accessapi

import (
	"github.com/Abraxas-365/propcore/pkg/errx"
	"github.com/Abraxas-365/propcore/pkg/iam/access"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the authorization probe used by the ticket surface.
type Handlers struct {
	mw *Middleware
}

func NewHandlers(mw *Middleware) *Handlers {
	return &Handlers{mw: mw}
}

func (h *Handlers) RegisterRoutes(app fiber.Router) {
	app.Get("/organizations/:organizationId/properties/:propertyId/access",
		h.mw.Authenticate(),
		h.mw.Require(access.PropertyMembers),
		h.Probe,
	)
}

type ProbeResponse struct {
	UserID          kernel.UserID           `json:"userId"`
	UserType        kernel.UserType         `json:"userType"`
	OrganizationID  *kernel.OrganizationID  `json:"organizationId,omitempty"`
	PropertyID      kernel.PropertyID       `json:"propertyId"`
	MaintenanceRole *kernel.MaintenanceRole `json:"maintenanceRole,omitempty"`
	UnitNumber      *string                 `json:"unitNumber,omitempty"`
}

func (h *Handlers) Probe(c *fiber.Ctx) error {
	ac, _ := GetAuthContext(c)
	grant, ok := GetGrant(c)
	if !ok || grant.Property == nil {
		return errx.Internal("authorization grant missing")
	}

	orgID := kernel.OrganizationID(c.Params(ParamOrganization))
	resp := ProbeResponse{
		UserID:         ac.UserID,
		UserType:       ac.UserType,
		OrganizationID: &orgID,
		PropertyID:     grant.Property.ID,
	}
	if grant.Staff != nil {
		role := grant.Staff.Role
		resp.MaintenanceRole = &role
	}
	if grant.Tenancy != nil {
		resp.UnitNumber = grant.Tenancy.UnitNumber
	}
	return c.JSON(resp)
}
