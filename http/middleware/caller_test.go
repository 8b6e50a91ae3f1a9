package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/auth"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/session"
)

type brokenRevocations struct{}

func (brokenRevocations) RevokedAt(context.Context, uuid.UUID) (time.Time, bool, error) {
	return time.Time{}, false, fmt.Errorf("%w: redis down", retention.ErrDependency)
}

func TestCurrentCaller(t *testing.T) {
	// Arrange
	// tokens must not be issued in the future, so the suspension happened an hour ago
	now := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	base, _ := url.Parse("https://example.com")
	svc, err := auth.NewService("test-key", base, retention.FixedClock(now))
	require.Nil(t, err)

	d := resp.NewResponder(resp.WithLogger(newLogger(new(bytes.Buffer))))
	revoker := session.NewMapRevoker()
	id := uuid.New()

	token, err := svc.SignCaller(retention.NewCaller(id, false), now.Add(-time.Minute))
	require.Nil(t, err)

	var actual retention.Caller
	capture := http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		actual, _ = retention.CallerFromContext(rx.Context())
	})

	// Arrange + Act
	noop := middleware.CurrentCaller(nil, svc, revoker)

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", noop))

	for _, tc := range []struct {
		name   string
		header string
		code   int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"Not-Bearer", "Basic abc", http.StatusUnauthorized},
		{"Garbage", "Bearer abc", http.StatusUnauthorized},
		{"Valid", "Bearer " + token, http.StatusOK},
		{"Lowercase-Scheme", "bearer " + token, http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			actual = retention.Caller{}
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			// Act
			middleware.CurrentCaller(d, svc, revoker)(capture).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				require.Equal(t, id, actual.ID)
				require.False(t, actual.IsAdmin)
				require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
				return
			}

			require.Equal(t, uuid.Nil, actual.ID)
			var body map[string]any
			require.Nil(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, false, body["ok"])
		})
	}

	// Arrange
	require.Nil(t, revoker.RevokeAll(context.Background(), id, now))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	// Act
	middleware.CurrentCaller(d, svc, revoker)(capture).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code, "token issued before suspension")

	// Arrange
	same, err := svc.SignCaller(retention.NewCaller(id, false), now)
	require.Nil(t, err)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Authorization", "Bearer "+same)

	// Act
	middleware.CurrentCaller(d, svc, revoker)(capture).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnauthorized, w.Code, "token issued in the instant of suspension")

	// Arrange
	fresh, err := svc.SignCaller(retention.NewCaller(id, false), now.Add(time.Second))
	require.Nil(t, err)
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Authorization", "Bearer "+fresh)

	// Act
	middleware.CurrentCaller(d, svc, revoker)(capture).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code, "token issued after suspension")

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Authorization", "Bearer "+fresh)

	// Act
	middleware.CurrentCaller(d, svc, brokenRevocations{})(capture).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	// Arrange
	d := resp.NewResponder(resp.WithLogger(newLogger(new(bytes.Buffer))))
	h := middleware.RequireAdmin(d)(teapotHandler())

	for _, tc := range []struct {
		name   string
		caller *retention.Caller
		code   int
	}{
		{"No-Caller", nil, http.StatusUnauthorized},
		{"Owner", &retention.Caller{ID: uuid.New()}, http.StatusForbidden},
		{"Admin", &retention.Caller{ID: uuid.New(), IsAdmin: true}, http.StatusTeapot},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "https://example.com", nil)
			if tc.caller != nil {
				r = r.WithContext(retention.NewCallerContext(r.Context(), *tc.caller))
			}

			// Act
			h.ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.code, w.Code)
		})
	}
}
