package router_test

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/http/router"
	"github.com/xy-planning-network/retention/logger"
)

// fakeAuthn stashes the Caller named by the X-Test-Caller header, if any.
func fakeAuthn(admin bool) middleware.Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Test-Caller") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			c := retention.NewCaller(uuid.New(), admin)
			h.ServeHTTP(w, r.WithContext(retention.NewCallerContext(r.Context(), c)))
		})
	}
}

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

func newRouter() *router.Router {
	l := logger.New(logger.WithLogger(log.New(new(bytes.Buffer), "", 0)))
	return router.New(retention.Testing, resp.NewResponder(resp.WithLogger(l)))
}

func TestRouter(t *testing.T) {
	// Arrange
	var everyReq int
	rt := newRouter()
	rt.OnEveryRequest(func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			everyReq++
			h.ServeHTTP(w, r)
		})
	})

	api := rt.Subrouter("/api/v1")
	api.Handle(router.Route{Path: "/health", Method: http.MethodGet, Handler: ok})
	api.AuthedRoutes(fakeAuthn(false), []router.Route{{Path: "/self/delete", Method: http.MethodPost, Handler: ok}})
	api.AdminRoutes(fakeAuthn(false), []router.Route{{Path: "/admin/retention-queue", Method: http.MethodGet, Handler: ok}})

	tcs := []struct {
		name   string
		method string
		path   string
		authed bool
		code   int
	}{
		{"Open", http.MethodGet, "/api/v1/health", false, http.StatusNoContent},
		{"Authed-Without-Caller", http.MethodPost, "/api/v1/self/delete", false, http.StatusUnauthorized},
		{"Authed-With-Caller", http.MethodPost, "/api/v1/self/delete", true, http.StatusNoContent},
		{"Admin-Not-Admin", http.MethodGet, "/api/v1/admin/retention-queue", true, http.StatusForbidden},
		{"Wrong-Method", http.MethodGet, "/api/v1/self/delete", true, http.StatusMethodNotAllowed},
		{"Unknown", http.MethodGet, "/api/v1/nope", true, http.StatusNotFound},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tc.method, "https://example.com"+tc.path, nil)
			if tc.authed {
				r.Header.Set("X-Test-Caller", "yes")
			}

			// Act
			rt.ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.code, w.Code)
		})
	}

	require.Equal(t, 4, everyReq)
}
