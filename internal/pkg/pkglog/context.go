package pkglog

import "context"

type (
	correlationIDKey struct{}
	userIDKey        struct{}
)

// GetCorrelationID returns the request correlation ID, or "" outside a request.
func GetCorrelationID(ctx context.Context) string {
	cid, _ := ctx.Value(correlationIDKey{}).(string)
	return cid
}

// SetCorrelationID stores a correlation ID into the context.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}

// GetUserID returns the acting user of the request, or "".
func GetUserID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey{}).(string)
	return uid
}

// SetUserID stores the acting user into the context. Every record logged with
// the context carries it as user_id.
func SetUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}
