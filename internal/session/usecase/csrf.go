package usecase

import (
	"context"

	"timeline/internal/session/domain/model"
	sharederrors "timeline/internal/shared/errors"
)

// CSRFGuard issues and checks the per-session anti-forgery token.
type CSRFGuard struct {
	manager *Manager
}

// NewCSRFGuard creates a guard persisting through manager.
func NewCSRFGuard(manager *Manager) *CSRFGuard {
	return &CSRFGuard{manager: manager}
}

// IssueToken returns the session's token, generating and persisting one if absent.
// It returns the same value until the session rotates.
func (g *CSRFGuard) IssueToken(ctx context.Context, s *model.Session) (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}

	token, err := newCSRFToken()
	if err != nil {
		return "", sharederrors.NewInternalError("issue csrf token").WithCause(err).WithComponent(component)
	}
	s.CSRFToken = token
	if err := g.manager.Save(ctx, s); err != nil {
		s.CSRFToken = ""
		return "", err
	}
	return token, nil
}

// Validate reports whether supplied matches the session token. A missing token on either side is a mismatch.
func (g *CSRFGuard) Validate(s *model.Session, supplied string) bool {
	if s == nil {
		return false
	}
	return tokensEqual(s.CSRFToken, supplied)
}
