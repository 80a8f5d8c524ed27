// Package audit writes security events (logins, CSRF rejections, forced logouts) to a dedicated zap logger.
// Token values never reach this package; callers pass presence flags only.
package audit

import (
	"go.uber.org/zap"
)

// Presence labels used for token fields.
const (
	Exists   = "exists"
	Missing  = "missing"
	Provided = "provided"
)

// Logger records audit events.
type Logger struct {
	z *zap.Logger
}

// New builds a JSON audit logger for production and a console one otherwise.
func New(environment string) (*Logger, error) {
	var (
		z   *zap.Logger
		err error
	)
	if environment == "production" || environment == "prod" {
		z, err = zap.NewProduction()
	} else {
		z, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return NewWithZap(z), nil
}

// NewWithZap wraps an existing zap logger.
func NewWithZap(z *zap.Logger) *Logger {
	return &Logger{z: z.Named("audit")}
}

// NewNop returns an audit logger that drops events.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// LoginSucceeded records a successful credential check.
func (l *Logger) LoginSucceeded(userID, ip string) {
	l.z.Info("login succeeded",
		zap.String("user_id", userID),
		zap.String("ip", ip))
}

// LoginFailed records a rejected credential check. The reason is internal and never shown to the client.
func (l *Logger) LoginFailed(email, ip, reason string) {
	l.z.Warn("login failed",
		zap.String("email", email),
		zap.String("ip", ip),
		zap.String("reason", reason))
}

// CSRFRejected records a request stopped by the CSRF guard.
func (l *Logger) CSRFRejected(method, path, ip string, sessionHasToken, requestHasToken bool) {
	l.z.Warn("csrf validation failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("ip", ip),
		zap.String("session_token", presence(sessionHasToken, Exists)),
		zap.String("submitted_token", presence(requestHasToken, Provided)))
}

// ForcedLogout records a session destroyed because its user vanished.
func (l *Logger) ForcedLogout(userID, reason string) {
	l.z.Warn("forced logout",
		zap.String("user_id", userID),
		zap.String("reason", reason))
}

// LoggedOut records an explicit logout.
func (l *Logger) LoggedOut(userID string) {
	l.z.Info("logged out", zap.String("user_id", userID))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func presence(ok bool, label string) string {
	if ok {
		return label
	}
	return Missing
}
