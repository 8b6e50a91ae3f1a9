package middleware_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
)

func TestIdempotent(t *testing.T) {
	// Arrange
	b := new(bytes.Buffer)
	cache := middleware.NewIdemResMap()
	idem := middleware.Idempotent(cache, newLogger(b))
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	w := httptest.NewRecorder()

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// Arrange
	r = httptest.NewRequest(http.MethodPost, "https://example.com", nil)
	w = httptest.NewRecorder()

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code, "no key passes through")

	// Arrange
	testKey := "test-idempotency"
	sum := sha256.Sum256(nil)
	r = httptest.NewRequest(http.MethodPost, "https://example.com", nil)
	r.Header.Set(middleware.IdempotencyHeader, testKey)
	w = httptest.NewRecorder()

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)

	v, ok, err := cache.Get(context.Background(), testKey)
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, http.StatusTeapot, v.Status)
	require.Equal(t, sum[:], v.Req)
	require.Equal(t, "/", v.URI)

	// Arrange
	r = httptest.NewRequest(http.MethodPost, "https://example.com", nil)
	r.Header.Set(middleware.IdempotencyHeader, testKey)
	w = httptest.NewRecorder()

	// Act
	idem(noopHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "true", w.Header().Get(middleware.ReplayedHeader))

	// Arrange
	r = httptest.NewRequest(http.MethodPost, "https://example.com/other", nil)
	r.Header.Set(middleware.IdempotencyHeader, testKey)
	w = httptest.NewRecorder()

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Arrange
	r = httptest.NewRequest(http.MethodPost, "https://example.com/", strings.NewReader("test"))
	r.Header.Set(middleware.IdempotencyHeader, testKey)
	w = httptest.NewRecorder()

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Arrange
	otherKey := "other"
	r = httptest.NewRequest(http.MethodPost, "https://example.com/", nil)
	r.Header.Set(middleware.IdempotencyHeader, otherKey)
	w = httptest.NewRecorder()

	ok, err = cache.Reserve(r.Context(), otherKey, middleware.NewIdemRes("/", sum[:]))
	require.Nil(t, err)
	require.True(t, ok)

	// Act
	idem(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusConflict, w.Code, "still processing")
}

func TestIdempotentReplaysBody(t *testing.T) {
	// Arrange
	cache := middleware.NewIdemResMap()
	var incrementMe int
	h := middleware.Idempotent(cache, newLogger(new(bytes.Buffer)))(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		incrementMe++
		wx.Header().Set("Content-Type", "application/json")
		wx.Write([]byte(strconv.Itoa(incrementMe)))
	}))

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "https://example.com/", strings.NewReader(`{"accountId":"x"}`))
		r.Header.Set(middleware.IdempotencyHeader, "increment")
		w := httptest.NewRecorder()

		// Act
		h.ServeHTTP(w, r)

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 1, incrementMe)
		require.Equal(t, "1", w.Body.String())
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestIdempotentForgetsServerErrors(t *testing.T) {
	// Arrange
	cache := middleware.NewIdemResMap()
	var calls int
	h := middleware.Idempotent(cache, newLogger(new(bytes.Buffer)))(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		calls++
		wx.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "https://example.com/", nil)
		r.Header.Set(middleware.IdempotencyHeader, "retry-me")
		w := httptest.NewRecorder()

		// Act
		h.ServeHTTP(w, r)

		// Assert
		require.Equal(t, http.StatusBadGateway, w.Code)
	}

	require.Equal(t, 2, calls)
	_, ok, err := cache.Get(context.Background(), "retry-me")
	require.Nil(t, err)
	require.False(t, ok)
}

func TestIdempotentScopesKeysToCaller(t *testing.T) {
	// Arrange
	cache := middleware.NewIdemResMap()
	var calls int
	h := middleware.Idempotent(cache, newLogger(new(bytes.Buffer)))(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		calls++
	}))

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodPost, "https://example.com/", nil)
		r.Header.Set(middleware.IdempotencyHeader, "shared")
		r = r.WithContext(retention.NewCallerContext(r.Context(), retention.NewCaller(uuid.New(), false)))
		w := httptest.NewRecorder()

		// Act
		h.ServeHTTP(w, r)

		// Assert
		require.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, 2, calls)
}
