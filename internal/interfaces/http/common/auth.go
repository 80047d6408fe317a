package common

import "context"

type contextKey string

const clientIDContextKey contextKey = "clientID"

// ContextWithClientID stores the anonymous client identity into context.
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}

// ClientIDFromContext extracts the anonymous client identity from context.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientIDContextKey).(string)
	return clientID, ok && clientID != ""
}
