package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "timeline context key " + string(c)
}

// RequestIDKey is the key for the per-request correlation id.
const RequestIDKey = contextKey("requestID")

// UserIDKey is the key for the authenticated user id.
const UserIDKey = contextKey("userID")

// LocaleKey is the key for the negotiated response language tag.
const LocaleKey = contextKey("locale")

