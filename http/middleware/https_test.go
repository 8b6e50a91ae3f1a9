package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
)

func TestForceHTTPS(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)

	// Act
	middleware.ForceHTTPS(retention.Development)(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	// Act
	middleware.ForceHTTPS(retention.Production)(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/admin/retention-queue", nil)
	r.Header.Set("X-Forwarded-Proto", "http")

	// Act
	middleware.ForceHTTPS(retention.Staging)(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusPermanentRedirect, w.Code)
	require.Equal(t, "https://example.com/api/v1/admin/retention-queue", w.Header().Get("Location"))

	// Arrange
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "http://example.com", nil)

	// Act
	middleware.ForceHTTPS(retention.Demo)(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
}
