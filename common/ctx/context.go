package ctx

import "context"

// ID of a connection.
type ID uint32

type sessionKey int

const idSessionKey sessionKey = 0

// ContextWithID returns a new context with the given connection ID.
func ContextWithID(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idSessionKey, id)
}

// IDFromContext returns the connection ID in this context, or 0 if not contained.
func IDFromContext(ctx context.Context) ID {
	if id, ok := ctx.Value(idSessionKey).(ID); ok {
		return id
	}
	return 0
}
