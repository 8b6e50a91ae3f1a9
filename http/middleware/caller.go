package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/session"
)

// A CallerParser verifies a bearer token and returns the Caller it identifies.
type CallerParser interface {
	ParseCaller(token string) (retention.Caller, error)
}

// CurrentCaller authenticates the bearer token in the Authorization header
// and stashes the Caller it identifies under retention.CurrentCallerKey.
//
// Missing or invalid tokens, and tokens issued at or before the account's sessions were revoked,
// are rejected with 401.
// Failing to check revocation rejects the request with 502.
func CurrentCaller(d *resp.Responder, parser CallerParser, revocations session.Checker) Adapter {
	if d == nil || parser == nil || revocations == nil {
		return NoopAdapter
	}

	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header)
			if !ok {
				d.Err(w, r, fmt.Errorf("%w: missing bearer token", retention.ErrForbidden), resp.Code(http.StatusUnauthorized))
				return
			}

			c, err := parser.ParseCaller(token)
			if err != nil {
				d.Err(w, r, err, resp.Code(http.StatusUnauthorized))
				return
			}

			revoked, err := session.Revoked(r.Context(), revocations, c.ID, c.IssuedAt)
			if err != nil {
				d.Err(w, r, err)
				return
			}

			if revoked {
				d.Err(w, r, fmt.Errorf("%w: session revoked", retention.ErrForbidden), resp.Code(http.StatusUnauthorized))
				return
			}

			w.Header().Add("Cache-Control", "no-store")
			w.Header().Add("Pragma", "no-cache")

			handler.ServeHTTP(w, r.WithContext(retention.NewCallerContext(r.Context(), c)))
		})
	}
}

// RequireAdmin rejects requests whose Caller is not an admin with 403.
// RequireAdmin follows CurrentCaller in a chain.
func RequireAdmin(d *resp.Responder) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := retention.CallerFromContext(r.Context())
			if !ok {
				d.Err(w, r, fmt.Errorf("%w: not authenticated", retention.ErrForbidden), resp.Code(http.StatusUnauthorized))
				return
			}

			if !c.IsAdmin {
				d.Err(w, r, fmt.Errorf("%w: admin only", retention.ErrForbidden))
				return
			}

			handler.ServeHTTP(w, r)
		})
	}
}

func bearerToken(h http.Header) (string, bool) {
	const prefix = "bearer "

	v := h.Get("Authorization")
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(v[len(prefix):])
	return token, token != ""
}
