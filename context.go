package meal

import "context"

type ctxKey string

const ctxKeyRequestID ctxKey = "meal_request_id"

// WithRequestID stores a request identifier in the context. The transport
// reuses it for the X-Request-ID header instead of generating one, so a
// host can correlate its own traces with API calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext extracts the request identifier from the context.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}
