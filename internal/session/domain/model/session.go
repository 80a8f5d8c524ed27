package model

import "time"

// Session is the server-side state bound to one browser through the session cookie.
// ID is the storage key and is never serialized into the stored value.
type Session struct {
	ID          string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	CSRFToken   string    `json:"csrf_token"`
	LoginUserID string    `json:"login_user_id,omitempty"`
}

// IsAuthenticated reports whether a user is logged in on this session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.LoginUserID != ""
}

// Age returns how long ago the current identifier was issued.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// Clone returns a copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
