package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention/http/middleware"
	"golang.org/x/time/rate"
)

func TestVisitorFetch(t *testing.T) {
	t.Run("Serial", func(t *testing.T) {
		// Arrange
		vs := middleware.NewVisitors(5, 20)

		// Act
		v1 := vs.Fetch("127.0.0.1")
		time.Sleep(time.Millisecond)
		v2 := vs.Fetch("127.0.0.1")

		// Assert
		require.Equal(t, v1.Limiter, v2.Limiter)
		require.True(t, v1.LastSeen.Before(v2.LastSeen))
		require.Equal(t, 1, vs.Len())
	})

	t.Run("Concurrent", func(t *testing.T) {
		// Arrange
		var wg sync.WaitGroup
		vs := middleware.NewVisitors(5, 20)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// Act
				vs.Fetch("127.0.0.1")
			}()
		}

		wg.Wait()

		// Assert
		require.Equal(t, 1, vs.Len())
	})
}

func TestRateLimit(t *testing.T) {
	// Arrange
	h := middleware.RateLimit(middleware.NewVisitors(rate.Every(time.Hour), 2))(teapotHandler())
	send := func(ip string) int {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "https://example.com/api/v1/self/delete", nil)
		r.Header.Set("X-Forwarded-For", ip)
		h.ServeHTTP(w, r)
		return w.Code
	}

	// Act + Assert
	require.Equal(t, http.StatusTeapot, send("8.8.8.8"))
	require.Equal(t, http.StatusTeapot, send("8.8.8.8"))
	require.Equal(t, http.StatusTooManyRequests, send("8.8.8.8"))
	require.Equal(t, http.StatusTeapot, send("1.1.1.1"))
}
