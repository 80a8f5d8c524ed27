package http

import (
	"time"

	"timeline/internal/session/config"

	"github.com/gofiber/fiber/v2"
)

// CookieOptions describes the session cookie. The cookie has no Expires so it ends with the browser
// session; server-side expiry is the store TTL.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite string
}

// CookieOptionsFromConfig maps the session config onto cookie attributes.
func CookieOptionsFromConfig(cfg *config.Config) CookieOptions {
	return CookieOptions{
		Name:     cfg.CookieName,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}
}

func (o CookieOptions) set(c *fiber.Ctx, id string) {
	c.Cookie(&fiber.Cookie{
		Name:     o.Name,
		Value:    id,
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HTTPOnly: true,
		SameSite: o.SameSite,
	})
}

func (o CookieOptions) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     o.Name,
		Value:    "",
		Path:     o.Path,
		Domain:   o.Domain,
		Secure:   o.Secure,
		HTTPOnly: true,
		SameSite: o.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
