package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention/logger"
)

func TestLogContextMarshalText(t *testing.T) {
	// Arrange
	lc := logger.LogContext{}

	// Act
	b, err := lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, []byte("{}"), b)

	// Arrange
	lc = logger.LogContext{Data: map[string]any{"accountId": "data"}}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"data":{"accountId":"data"}}`, string(b))

	// Arrange
	lc = logger.LogContext{Error: errors.New("test")}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"error":"test"}`, string(b))

	// Arrange
	lc = logger.LogContext{User: testUser{}}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `{"user":{"email":"test@example.com","id":"4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10"}}`, string(b))

	// Arrange
	expected := map[string]any{
		"request": map[string]any{
			"method": http.MethodGet,
			"url":    "https://example.com",
			"header": map[string]any{
				"Host": []any{"example.com"},
			},
		},
	}

	r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	r.Header.Set("Host", "example.com")
	lc = logger.LogContext{Request: r}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	m := make(map[string]any)
	require.Nil(t, json.Unmarshal(b, &m))
	require.Equal(t, expected, m)

	// Arrange
	expected = map[string]any{
		"request": map[string]any{
			"method": http.MethodPost,
			"url":    "https://example.com/api/v1/admin/accounts/suspend?some=param",
			"header": map[string]any{
				"Host":         []any{"example.com"},
				"Content-Type": []any{"application/x-www-form-urlencoded"},
			},
			"form": map[string]any{
				"accountId": []any{"4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10"},
				"reason":    []any{"spam"},
				"some":      []any{"param"},
			},
		},
	}

	form := url.Values{}
	form.Set("accountId", "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10")
	form.Set("reason", "spam")
	s := strings.NewReader(form.Encode())

	r = httptest.NewRequest(http.MethodPost, "https://example.com/api/v1/admin/accounts/suspend?some=param", s)
	r.Header.Set("Host", "example.com")
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ParseForm()

	lc = logger.LogContext{Request: r}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	m = make(map[string]any)
	require.Nil(t, json.Unmarshal(b, &m))
	require.Equal(t, expected, m)

	// Arrange
	buf := new(bytes.Buffer)
	require.Nil(t, json.NewEncoder(buf).Encode(map[string]string{
		"accountId": "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10",
		"reason":    "spam",
	}))
	expected = map[string]any{
		"request": map[string]any{
			"method": http.MethodPost,
			"url":    "https://example.com/api/v1/admin/accounts/suspend?some=param",
			"header": map[string]any{
				"Host":         []any{"example.com"},
				"Content-Type": []any{"application/json"},
			},
			"json": map[string]any{
				"accountId": "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10",
				"reason":    "spam",
			},
		},
	}

	r = httptest.NewRequest(http.MethodPost, "https://example.com/api/v1/admin/accounts/suspend?some=param", buf)
	r.Header.Set("Host", "example.com")
	r.Header.Set("Content-Type", "application/json")

	lc = logger.LogContext{Request: r}

	// Act
	b, err = lc.MarshalText()

	// Assert
	require.Nil(t, err)
	m = make(map[string]any)
	require.Nil(t, json.Unmarshal(b, &m))
	require.Equal(t, expected, m)
	_, err = io.ReadAll(r.Body)
	require.Nil(t, err)
}

func TestLogContextMasksCredentials(t *testing.T) {
	// Arrange
	buf := new(bytes.Buffer)
	require.Nil(t, json.NewEncoder(buf).Encode(map[string]string{
		"accountId": "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10",
		"reauth":    "proof-token",
	}))

	r := httptest.NewRequest(http.MethodPost, "https://example.com/api/v1/links/cancel-delete?jwt=link-token", buf)
	r.Header.Set("Authorization", "Bearer bearer-token")
	r.Header.Set("Content-Type", "application/json")

	// Act
	s := logger.LogContext{Request: r}.String()

	// Assert
	require.NotContains(t, s, "link-token")
	require.NotContains(t, s, "bearer-token")
	require.NotContains(t, s, "proof-token")
	require.Contains(t, s, "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10")
	require.Equal(t, "Bearer bearer-token", r.Header.Get("Authorization"))
}

type testUser struct{}

func (u testUser) GetID() string    { return "4c1f7c1e-8d7b-4a55-9c3e-2d5e1c6d9a10" }
func (u testUser) GetEmail() string { return "test@example.com" }
