package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/http/middleware"
)

func TestGetIPAddress(t *testing.T) {
	header := func(k, v string) http.Header {
		h := make(http.Header)
		h.Set(k, v)
		return h
	}

	tcs := []struct {
		name     string
		hm       http.Header
		expected string
	}{
		{"No-Match", make(http.Header), middleware.UnknownIPAddress},
		{"Only-Private-IP", header("X-Forwarded-For", "192.168.0.1"), middleware.UnknownIPAddress},
		{"Carrier-Grade-NAT", header("X-Forwarded-For", "100.64.1.1"), middleware.UnknownIPAddress},
		{"Garbage", header("X-Forwarded-For", "not-an-ip"), middleware.UnknownIPAddress},
		{"Only-Public-IP", header("X-Forwarded-For", "1.1.1.1"), "1.1.1.1"},
		{"Get-Before-Proxy", header("X-Real-Ip", "10.0.0.1,1.1.1.1"), "1.1.1.1"},
		{"Get-First-Public", header("X-Real-Ip", "10.255.255.255,8.8.8.8,1.1.1.1,172.16.0.0"), "1.1.1.1"},
		{"IPv6", header("X-Forwarded-For", "2606:4700:4700::1111"), "2606:4700:4700::1111"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, middleware.GetIPAddress(tc.hm))
		})
	}
}

func TestInjectIPAddress(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("X-Forwarded-For", "8.8.8.8")
	var actual string

	// Act
	middleware.InjectIPAddress()(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
		actual, _ = rx.Context().Value(retention.IpAddrKey).(string)
	})).ServeHTTP(w, r)

	// Assert
	require.Equal(t, "8.8.8.8", actual)
}
