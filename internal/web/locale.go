package web

import (
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

const (
	localsLocale  = "web.locale"
	localsCatalog = "web.catalog"
)

// Localize negotiates the response language from Accept-Language and exposes the catalog to handlers.
func Localize(cat *i18n.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tag := cat.Negotiate(c.Get(fiber.HeaderAcceptLanguage))
		c.Locals(localsLocale, tag)
		c.Locals(localsCatalog, cat)
		c.SetUserContext(utils.WithLocale(c.UserContext(), tag.String()))
		return c.Next()
	}
}

// Lang returns the negotiated language, Japanese when Localize did not run.
func Lang(c *fiber.Ctx) language.Tag {
	if tag, ok := c.Locals(localsLocale).(language.Tag); ok {
		return tag
	}
	return language.Japanese
}

// T renders a message key for the current request.
func T(c *fiber.Ctx, key string, args ...interface{}) string {
	cat, ok := c.Locals(localsCatalog).(*i18n.Catalog)
	if !ok {
		return key
	}
	return cat.Text(Lang(c), key, args...)
}
