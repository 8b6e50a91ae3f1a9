package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS sets "Access-Control-Allow" style headers on a response for requests from origin.
// The handler including this middleware must also handle the http.MethodOptions method
// and not just the HTTP method it's designed for.
//
// If origin is empty, NoopAdapter returns and this middleware does nothing.
func CORS(origin string) Adapter {
	if origin == "" {
		return NoopAdapter
	}

	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Authorization",
			"Content-Type",
			IdempotencyHeader,
		}),
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
			http.MethodPost,
		}),
		handlers.ExposedHeaders([]string{RequestIDHeader, ReplayedHeader}),
	)
}
