package http

import (
	"time"

	"timeline/internal/auth/config"
	"timeline/internal/auth/domain/model"
	"timeline/internal/auth/usecase"
	sessionhttp "timeline/internal/session/adapter/http"
	"timeline/internal/shared/audit"
	"timeline/internal/shared/contextkeys"
	sharederrors "timeline/internal/shared/errors"
	"timeline/internal/shared/i18n"
	"timeline/internal/shared/logger"
	"timeline/internal/shared/utils"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const localsUser = "auth.user"

// LoginPath is where anonymous page requests are sent.
const LoginPath = "/login"

// AuthMiddleware gates routes on the session's login state.
type AuthMiddleware struct {
	usecase         usecase.AuthUsecaseInterface
	session         *sessionhttp.Middleware
	audit           *audit.Logger
	log             logger.Logger
	rateLimit       int
	rateLimitWindow time.Duration
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(
	uc usecase.AuthUsecaseInterface,
	session *sessionhttp.Middleware,
	cfg *config.Config,
	auditLog *audit.Logger,
	log logger.Logger,
) *AuthMiddleware {
	if auditLog == nil {
		auditLog = audit.NewNop()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthMiddleware{
		usecase:         uc,
		session:         session,
		audit:           auditLog,
		log:             log.WithComponent("auth"),
		rateLimit:       cfg.RateLimit,
		rateLimitWindow: cfg.RateLimitWindow,
	}
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter limits credential submissions per client address. The address is c.IP(), which only
// reflects a proxy header when the app is configured with trusted proxies.
func (m *AuthMiddleware) RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               m.rateLimit,
		Expiration:        m.rateLimitWindow,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			m.log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
				"path": c.Path(),
				"ip":   c.IP(),
			}).Warn("Login rate limit reached")
			return web.RespondError(c, fiber.StatusTooManyRequests, i18n.KeyRateLimited)
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// CopyRequestID exposes the request id stored by RequestID to context-aware loggers.
func (m *AuthMiddleware) CopyRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Protect requires a logged-in session for page routes. Anonymous requests are redirected to the
// login page.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return m.protect(false)
}

// ProtectAPI is Protect for JSON and websocket routes: anonymous requests get a 401 JSON body.
func (m *AuthMiddleware) ProtectAPI() fiber.Handler {
	return m.protect(true)
}

func (m *AuthMiddleware) protect(api bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := sessionhttp.UserID(c)
		if userID == "" {
			return m.deny(c, api)
		}

		user, err := m.usecase.CurrentUser(c.UserContext(), userID)
		if err != nil {
			if sharederrors.IsNotFound(err) {
				return m.forceLogout(c, userID, api)
			}
			return err
		}

		c.Locals(localsUser, user)
		return c.Next()
	}
}

// forceLogout ends a session whose user no longer exists.
func (m *AuthMiddleware) forceLogout(c *fiber.Ctx, userID string, api bool) error {
	m.audit.ForcedLogout(userID, "user_not_found")
	m.log.WithContext(c.UserContext()).Warn("Session user no longer exists, logging out")

	if err := m.session.Destroy(c); err != nil {
		return err
	}
	return m.deny(c, api)
}

func (m *AuthMiddleware) deny(c *fiber.Ctx, api bool) error {
	if api {
		return web.RespondJSONError(c, fiber.StatusUnauthorized, i18n.KeyLoginRequired)
	}
	return c.Redirect(LoginPath, fiber.StatusFound)
}

// CurrentUser returns the user loaded by Protect, nil on unprotected routes.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(localsUser).(*model.User)
	return user
}

// IsAuthenticated reports whether the request's session is logged in.
func IsAuthenticated(c *fiber.Ctx) bool {
	return sessionhttp.UserID(c) != ""
}
