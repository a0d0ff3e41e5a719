package authapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const cookiePath = "/auth"

// CookieConfig describes the refresh token cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

func (cc CookieConfig) name() string {
	if cc.Name == "" {
		return "refreshToken"
	}
	return cc.Name
}

func (cc CookieConfig) Set(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.name(),
		Value:    value,
		Path:     cookiePath,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (cc CookieConfig) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.name(),
		Value:    "",
		Path:     cookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (cc CookieConfig) Read(c *fiber.Ctx) string {
	return c.Cookies(cc.name())
}
