package http

import (
	"timeline/internal/session/domain/model"

	"github.com/gofiber/fiber/v2"
)

const localsState = "session.state"

// State is the per-request session context handed to guards and handlers.
type State struct {
	Session *model.Session
	// CookieID is the identifier the client presented, empty when it sent none.
	CookieID string
}

// FromCtx returns the request's session state, or nil when the Load middleware did not run.
func FromCtx(c *fiber.Ctx) *State {
	st, _ := c.Locals(localsState).(*State)
	return st
}

// UserID returns the logged-in user id for the request, empty when anonymous.
func UserID(c *fiber.Ctx) string {
	if st := FromCtx(c); st != nil && st.Session != nil {
		return st.Session.LoginUserID
	}
	return ""
}

// CSRFToken returns the token to embed in forms rendered for this request.
func CSRFToken(c *fiber.Ctx) string {
	if st := FromCtx(c); st != nil && st.Session != nil {
		return st.Session.CSRFToken
	}
	return ""
}
