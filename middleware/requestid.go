package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey struct{}

var requestIDKey contextKey

// RequestID assigns each request a UUID, echoed in the X-Request-ID response
// header and available to handlers via IDFromContext for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// IDFromContext returns the request ID set by RequestID, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
