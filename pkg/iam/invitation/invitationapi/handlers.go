package invitationapi

import (
	"strconv"

	"github.com/Abraxas-365/propcore/pkg/iam/access/accessapi"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authapi"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation"
	"github.com/Abraxas-365/propcore/pkg/iam/invitation/invitationsrv"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	svc    *invitationsrv.Service
	mw     *accessapi.Middleware
	cookie authapi.CookieConfig
}

func NewHandlers(svc *invitationsrv.Service, mw *accessapi.Middleware, cookie authapi.CookieConfig) *Handlers {
	return &Handlers{svc: svc, mw: mw, cookie: cookie}
}

func (h *Handlers) RegisterRoutes(app fiber.Router) {
	g := app.Group("/invites")

	// The service authorizes org owners and admins itself.
	authn := h.mw.Authenticate()
	g.Post("/", authn, h.Create)
	g.Get("/", authn, h.ListPending)
	g.Delete("/:id", authn, h.Revoke)

	g.Get("/:token", h.Details)
	g.Post("/:token/accept", h.Accept)
}

type inviteEnvelope struct {
	Invite any `json:"invite"`
}

// delivery reads the email and phone query flags. Missing flags default
// to sending.
func delivery(c *fiber.Ctx) (invitation.Delivery, error) {
	d := invitation.DefaultDelivery()
	for key, dst := range map[string]*bool{"email": &d.Email, "phone": &d.SMS} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return d, invitation.ErrRegistry.NewWithMessage(invitation.ErrInvalidRequest, key+" must be a boolean")
		}
		*dst = v
	}
	return d, nil
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	ac, _ := accessapi.GetAuthContext(c)

	var req invitation.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return invitation.ErrRegistry.NewWithCause(invitation.ErrInvalidRequest, err)
	}
	d, err := delivery(c)
	if err != nil {
		return err
	}

	created, err := h.svc.CreateInvite(c.UserContext(), ac, req, d)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inviteEnvelope{Invite: created})
}

func (h *Handlers) ListPending(c *fiber.Ctx) error {
	ac, _ := accessapi.GetAuthContext(c)
	invites, err := h.svc.ListPending(c.UserContext(), ac)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"invites": invites})
}

func (h *Handlers) Revoke(c *fiber.Ctx) error {
	ac, _ := accessapi.GetAuthContext(c)
	if err := h.svc.RevokeInvite(c.UserContext(), ac, kernel.InviteID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) Details(c *fiber.Ctx) error {
	dto, err := h.svc.GetInviteDetails(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(inviteEnvelope{Invite: dto})
}

func (h *Handlers) Accept(c *fiber.Ctx) error {
	var req invitation.AcceptRequest
	if err := c.BodyParser(&req); err != nil {
		return invitation.ErrRegistry.NewWithCause(invitation.ErrInvalidRequest, err)
	}

	res, err := h.svc.AcceptInvite(c.UserContext(), c.Params("token"), req,
		session.Device{UserAgent: c.Get(fiber.HeaderUserAgent), IPAddress: c.IP()})
	if err != nil {
		return err
	}
	h.cookie.Set(c, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt)
	return c.Status(fiber.StatusCreated).JSON(res.Profile.Response(res.Tokens.AccessToken))
}
