package session

import "context"

type sessionKey int

const sessionContextKey sessionKey = 0

// ContextWithSession returns a context carrying the given session.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext returns the session carried by the context, or nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionContextKey).(*Session); ok {
		return s
	}
	return nil
}
