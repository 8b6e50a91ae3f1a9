package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

// RequestIDHeader echoes the request ID back to the client.
const RequestIDHeader = "X-Request-Id"

// RequestID adds a uuid to the request context under retention.RequestIDKey
// and echoes it in the X-Request-Id response header.
func RequestID() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			w.Header().Set(RequestIDHeader, id)
			h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), retention.RequestIDKey, id)))
		})
	}
}
