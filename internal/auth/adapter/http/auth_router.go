package http

import (
	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/usecase"
	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/shared/audit"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
)

// HomePath is where a successful login lands.
const HomePath = "/timeline"

// AuthHTTPHandler serves the login, signup and logout pages.
type AuthHTTPHandler struct {
	usecase  usecase.AuthUsecaseInterface
	session  *sessionhttp.Middleware
	renderer *web.Renderer
	audit    *audit.Logger
	log      logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(
	uc usecase.AuthUsecaseInterface,
	session *sessionhttp.Middleware,
	renderer *web.Renderer,
	auditLog *audit.Logger,
	log logger.Logger,
) *AuthHTTPHandler {
	if auditLog == nil {
		auditLog = audit.NewNop()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthHTTPHandler{
		usecase:  uc,
		session:  session,
		renderer: renderer,
		audit:    auditLog,
		log:      log.WithComponent("auth"),
	}
}

// SetupAuthRoutesWithMiddleware registers the auth pages. The session and CSRF middleware must already
// be installed on router.
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	router.Get("/", h.Root)

	router.Get("/login", h.LoginPage)
	router.Post("/login", middleware.RateLimiter(), h.Login)
	router.Get("/signup", h.SignupPage)
	router.Post("/signup", middleware.RateLimiter(), h.Signup)
	router.Post("/logout", h.Logout)

	router.Get("/me.json", middleware.ProtectAPI(), h.GetCurrentUser)
}

// Root sends the visitor to the timeline or the login page.
func (h *AuthHTTPHandler) Root(c *fiber.Ctx) error {
	if IsAuthenticated(c) {
		return c.Redirect(HomePath, fiber.StatusFound)
	}
	return c.Redirect(LoginPath, fiber.StatusFound)
}

// LoginPage renders the login form. Logged-in users go straight to the timeline.
func (h *AuthHTTPHandler) LoginPage(c *fiber.Ctx) error {
	if IsAuthenticated(c) {
		return c.Redirect(HomePath, fiber.StatusFound)
	}

	page, err := h.newPage(c, i18n.KeyPageLoginTitle)
	if err != nil {
		return err
	}
	if c.Query("logged_out") != "" {
		page.Notice = i18n.KeyLoggedOut
	}
	return h.renderer.Render(c, fiber.StatusOK, web.PageLogin, page)
}

// Login handles the login form.
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	user, err := h.usecase.Authenticate(c.UserContext(), email, password)
	if err != nil {
		if sharederrors.IsInfrastructure(err) {
			return err
		}

		h.audit.LoginFailed(email, c.IP(), failureReason(err))

		page, pageErr := h.newPage(c, i18n.KeyPageLoginTitle)
		if pageErr != nil {
			return pageErr
		}
		page.Form["email"] = email

		status := sharederrors.HTTPStatus(err)
		if fields := sharederrors.FieldErrors(err); len(fields) > 0 {
			page.FieldErrors = fieldErrorMap(fields)
		} else if appErr, ok := sharederrors.AsAppError(err); ok {
			page.Error = appErr.MessageKey
		}
		return h.renderer.Render(c, status, web.PageLogin, page)
	}

	if err := h.session.Login(c, user.ID); err != nil {
		return err
	}

	h.usecase.RecordAccess(c.UserContext(), model.AccessLog{
		UserID:    user.ID,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	h.audit.LoginSucceeded(user.ID, c.IP())
	h.log.WithContext(c.UserContext()).Info("User logged in")

	return c.Redirect(HomePath, fiber.StatusSeeOther)
}

// SignupPage renders the signup form.
func (h *AuthHTTPHandler) SignupPage(c *fiber.Ctx) error {
	page, err := h.newPage(c, i18n.KeyPageSignupTitle)
	if err != nil {
		return err
	}
	return h.renderer.Render(c, fiber.StatusOK, web.PageSignup, page)
}

// Signup handles the signup form. Success re-renders an empty form with a notice; it does not log in.
// Invalid input renders 400 and an already registered email 409, both with the failing fields.
func (h *AuthHTTPHandler) Signup(c *fiber.Ctx) error {
	req := usecase.RegisterRequest{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		PasswordConfirm: c.FormValue("password_confirm"),
	}

	_, err := h.usecase.Register(c.UserContext(), req)
	if err != nil && !sharederrors.IsValidation(err) && !sharederrors.IsConflict(err) {
		return err
	}

	page, pageErr := h.newPage(c, i18n.KeyPageSignupTitle)
	if pageErr != nil {
		return pageErr
	}
	if err != nil {
		page.FieldErrors = fieldErrorMap(sharederrors.FieldErrors(err))
		page.Form["name"] = req.Name
		page.Form["email"] = req.Email
		return h.renderer.Render(c, sharederrors.HTTPStatus(err), web.PageSignup, page)
	}

	page.Notice = i18n.KeySignupSuccess
	return h.renderer.Render(c, fiber.StatusOK, web.PageSignup, page)
}

// Logout destroys the session and expires its cookie.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	userID := sessionhttp.UserID(c)
	if err := h.session.Destroy(c); err != nil {
		return err
	}
	if userID != "" {
		h.audit.LoggedOut(userID)
	}
	return c.Redirect(LoginPath+"?logged_out=1", fiber.StatusSeeOther)
}

// GetCurrentUser returns the logged-in user as JSON.
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	user := CurrentUser(c)
	if user == nil {
		return web.RespondError(c, fiber.StatusUnauthorized, i18n.KeyLoginRequired)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"icon_file_url": user.IconURL(),
		},
	})
}

func (h *AuthHTTPHandler) newPage(c *fiber.Ctx, title string) (web.PageData, error) {
	page := web.NewPage(c, title)
	token, err := h.session.IssueToken(c)
	if err != nil {
		return page, err
	}
	page.CSRFToken = token
	return page, nil
}

func fieldErrorMap(fields []sharederrors.ValidationError) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		if _, ok := m[f.Field]; !ok {
			m[f.Field] = f.Key
		}
	}
	return m
}

func failureReason(err error) string {
	if sharederrors.IsAuthentication(err) {
		return "invalid_credentials"
	}
	return "invalid_input"
}
