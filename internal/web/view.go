package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageLogin    = "login"
	PageSignup   = "signup"
	PageTimeline = "timeline"
)

// ViewUser is the signed-in user shown in the page header.
type ViewUser struct {
	ID   string
	Name string
}

// PageData is the model handed to every page template. Notice, Error and FieldErrors hold catalog keys.
type PageData struct {
	Title       string
	Lang        string
	CSRFToken   string
	User        *ViewUser
	Notice      string
	Error       string
	FieldErrors map[string]string
	Form        map[string]string
	Content     interface{}

	translate func(key string, args ...interface{}) string
}

// T translates key inside templates.
func (p PageData) T(key string) string {
	if p.translate == nil {
		return key
	}
	return p.translate(key)
}

// Renderer renders the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout together with each page.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageLogin, PageSignup, PageTimeline} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// MustNewRenderer panics when the embedded templates do not parse.
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// NewPage prepares page data bound to the request language.
func NewPage(c *fiber.Ctx, title string) PageData {
	return PageData{
		Title:       title,
		Lang:        Lang(c).String(),
		FieldErrors: map[string]string{},
		Form:        map[string]string{},
		translate: func(key string, args ...interface{}) string {
			return T(c, key, args...)
		},
	}
}

// Render writes page name with status.
func (r *Renderer) Render(c *fiber.Ctx, status int, name string, data PageData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(status).Send(buf.Bytes())
}
