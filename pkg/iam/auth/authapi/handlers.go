package authapi

import (
	"github.com/Abraxas-365/propcore/pkg/iam/access/accessapi"
	"github.com/Abraxas-365/propcore/pkg/iam/auth"
	"github.com/Abraxas-365/propcore/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/propcore/pkg/iam/session"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	svc    *authsrv.Service
	mw     *accessapi.Middleware
	cookie CookieConfig
}

func NewHandlers(svc *authsrv.Service, mw *accessapi.Middleware, cookie CookieConfig) *Handlers {
	return &Handlers{svc: svc, mw: mw, cookie: cookie}
}

func (h *Handlers) RegisterRoutes(app fiber.Router) {
	g := app.Group("/auth")
	g.Post("/register", h.Register)
	g.Post("/login", h.Login)
	g.Post("/refresh", h.Refresh)
	g.Post("/logout", h.Logout)
	g.Get("/me", h.mw.Authenticate(), h.Me)
}

func device(c *fiber.Ctx) session.Device {
	return session.Device{UserAgent: c.Get(fiber.HeaderUserAgent), IPAddress: c.IP()}
}

func (h *Handlers) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrRegistry.NewWithCause(auth.ErrInvalidRequest, err)
	}

	res, err := h.svc.Register(c.UserContext(), req, device(c))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusCreated, res)
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrRegistry.NewWithCause(auth.ErrInvalidRequest, err)
	}

	res, err := h.svc.Login(c.UserContext(), req, device(c))
	if err != nil {
		return err
	}
	return h.respond(c, fiber.StatusOK, res)
}

// Refresh rotates the session named by the refresh cookie. A failed
// rotation clears the cookie.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	raw := h.cookie.Read(c)
	if raw == "" {
		return session.ErrRegistry.New(session.ErrInvalidToken)
	}

	res, err := h.svc.Refresh(c.UserContext(), raw, device(c))
	if err != nil {
		h.cookie.Clear(c)
		return err
	}
	return h.respond(c, fiber.StatusOK, res)
}

// Logout always succeeds from the client's point of view. Session
// deletion is best-effort.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext(), h.cookie.Read(c), device(c)); err != nil {
		logx.WithError(err).WithField("request_id", c.Get(fiber.HeaderXRequestID)).Warn("logout could not delete the session")
	}
	h.cookie.Clear(c)
	return c.JSON(fiber.Map{"message": "logged out"})
}

func (h *Handlers) Me(c *fiber.Ctx) error {
	ac, ok := accessapi.GetAuthContext(c)
	if !ok {
		return accessapi.ErrRegistry.New(accessapi.ErrMissingToken)
	}

	profile, err := h.svc.Me(c.UserContext(), ac)
	if err != nil {
		return err
	}
	return c.JSON(profile.Response(""))
}

func (h *Handlers) respond(c *fiber.Ctx, status int, res *auth.Result) error {
	h.cookie.Set(c, res.Tokens.RefreshToken, res.Tokens.RefreshExpiresAt)
	return c.Status(status).JSON(res.Profile.Response(res.Tokens.AccessToken))
}
