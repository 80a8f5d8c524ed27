// Package i18n holds the user-facing message catalog. Operational log lines stay in English and never go through it.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Catalog resolves message keys to localized text.
type Catalog struct {
	cat       *catalog.Builder
	supported []language.Tag
	matcher   language.Matcher
}

// New builds the catalog with the bundled Japanese and English messages. Japanese is the fallback.
func New() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.Japanese))
	for key, text := range japanese {
		if err := b.SetString(language.Japanese, key, text); err != nil {
			return nil, fmt.Errorf("i18n: ja %s: %w", key, err)
		}
	}
	for key, text := range english {
		if err := b.SetString(language.English, key, text); err != nil {
			return nil, fmt.Errorf("i18n: en %s: %w", key, err)
		}
	}

	supported := []language.Tag{language.Japanese, language.English}
	return &Catalog{
		cat:       b,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}, nil
}

// MustNew is New for package initialization and tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Negotiate picks the best supported language for an Accept-Language header value.
func (c *Catalog) Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.supported[0]
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.supported[0]
	}
	return c.supported[idx]
}

// Lookup parses a stored tag string, falling back to the default language.
func (c *Catalog) Lookup(tag string) language.Tag {
	t, err := language.Parse(tag)
	if err != nil {
		return c.supported[0]
	}
	return c.Negotiate(t.String())
}

// Printer returns a printer bound to tag.
func (c *Catalog) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(c.cat))
}

// Text renders key in tag. Unknown keys are returned as-is.
func (c *Catalog) Text(tag language.Tag, key string, args ...interface{}) string {
	return c.Printer(tag).Sprintf(key, args...)
}
