package http

import (
	"timeline/internal/session/usecase"
	"timeline/internal/shared/audit"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	"timeline/internal/shared/utils"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
)

const (
	// CSRFFormField is the hidden form field carrying the token.
	CSRFFormField = "csrf_token"
	// CSRFHeader carries the token for script clients.
	CSRFHeader = "X-CSRF-Token"
)

// Middleware binds the session lifecycle and the CSRF guard to fiber requests.
type Middleware struct {
	manager *usecase.Manager
	csrf    *usecase.CSRFGuard
	cookie  CookieOptions
	audit   *audit.Logger
	log     logger.Logger
}

// NewMiddleware creates the session middleware.
func NewMiddleware(manager *usecase.Manager, csrf *usecase.CSRFGuard, cookie CookieOptions, auditLog *audit.Logger, log logger.Logger) *Middleware {
	if auditLog == nil {
		auditLog = audit.NewNop()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Middleware{
		manager: manager,
		csrf:    csrf,
		cookie:  cookie,
		audit:   auditLog,
		log:     log.WithComponent("session"),
	}
}

// Load ensures every request carries a live session. Periodic rotation only happens on safe methods so a
// form submitted just after the rotation window is checked against the token it was rendered with.
// A store failure stops the request with an infrastructure error.
func (m *Middleware) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookieID := c.Cookies(m.cookie.Name)

		s, err := m.manager.Ensure(c.UserContext(), cookieID, !IsMutating(c.Method()))
		if err != nil {
			return err
		}

		st := &State{Session: s, CookieID: cookieID}
		c.Locals(localsState, st)
		if s.ID != cookieID {
			m.cookie.set(c, s.ID)
		}
		if s.IsAuthenticated() {
			c.SetUserContext(utils.WithUserID(c.UserContext(), s.LoginUserID))
		}
		return c.Next()
	}
}

// RequireValidCSRF rejects mutating requests whose token does not match the session with a plain-text 403.
// Nothing after it in the chain runs on failure.
func (m *Middleware) RequireValidCSRF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsMutating(c.Method()) {
			return c.Next()
		}

		supplied := c.FormValue(CSRFFormField)
		if supplied == "" {
			supplied = c.Get(CSRFHeader)
		}

		st := FromCtx(c)
		if st == nil || !m.csrf.Validate(st.Session, supplied) {
			sessionHasToken := st != nil && st.Session != nil && st.Session.CSRFToken != ""
			m.audit.CSRFRejected(c.Method(), c.Path(), c.IP(), sessionHasToken, supplied != "")
			m.log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
				"method":          c.Method(),
				"path":            c.Path(),
				"session_token":   presence(sessionHasToken, audit.Exists),
				"submitted_token": presence(supplied != "", audit.Provided),
			}).Warn("CSRF token validation failed")

			return m.deny(c, sharederrors.NewAuthorizationError("csrf token mismatch").
				WithKey(i18n.KeyCSRFInvalid).
				WithComponent("session"))
		}
		return c.Next()
	}
}

// deny answers a rejected request with the plain-text catalog message of err.
func (m *Middleware) deny(c *fiber.Ctx, err *sharederrors.AppError) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(err.HTTPCode).SendString(web.T(c, err.MessageKey))
}

// Login moves the request's session to authenticated and re-issues the cookie for the new identifier.
func (m *Middleware) Login(c *fiber.Ctx, userID string) error {
	st := FromCtx(c)
	if st == nil {
		return sharederrors.NewInternalError("session middleware not installed").WithComponent("session")
	}
	if err := m.manager.Login(c.UserContext(), st.Session, userID); err != nil {
		return err
	}
	m.cookie.set(c, st.Session.ID)
	c.SetUserContext(utils.WithUserID(c.UserContext(), userID))
	return nil
}

// Destroy drops the request's session and expires the cookie.
func (m *Middleware) Destroy(c *fiber.Ctx) error {
	st := FromCtx(c)
	if st == nil {
		m.cookie.clear(c)
		return nil
	}
	if err := m.manager.Destroy(c.UserContext(), st.Session); err != nil {
		return err
	}
	m.cookie.clear(c)
	return nil
}

// IssueToken returns the CSRF token for forms rendered in this request.
func (m *Middleware) IssueToken(c *fiber.Ctx) (string, error) {
	st := FromCtx(c)
	if st == nil {
		return "", sharederrors.NewInternalError("session middleware not installed").WithComponent("session")
	}
	return m.csrf.IssueToken(c.UserContext(), st.Session)
}

// IsMutating reports whether method changes server state.
func IsMutating(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	default:
		return false
	}
}

func presence(ok bool, label string) string {
	if ok {
		return label
	}
	return audit.Missing
}
