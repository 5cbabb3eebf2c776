// Package requestctx carries request-scoped values from the HTTP layer into
// services without importing gin.
package requestctx

import "context"

type identityKey struct{}
type requestIDKey struct{}

func WithIdentity(ctx context.Context, identityID int64) context.Context {
	return context.WithValue(ctx, identityKey{}, identityID)
}

// IdentityFrom returns the admin identity that issued the request, or 0.
func IdentityFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(identityKey{}).(int64)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
