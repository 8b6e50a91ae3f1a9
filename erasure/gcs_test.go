package erasure_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/erasure"
	"google.golang.org/api/option"
)

func TestGCSStep(t *testing.T) {
	// Arrange
	id := uuid.New()
	prefix := erasure.AccountPrefix(id)

	var listedPrefix string
	var deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			listedPrefix = r.URL.Query().Get("prefix")
			fmt.Fprintf(w, `{"items":[{"name":"%[1]savatar.png"},{"name":"%[1]sgone.png"}]}`, prefix)
		case http.MethodDelete:
			name := strings.TrimPrefix(r.URL.Path, "/storage/v1/b/uploads/o/")
			if strings.HasSuffix(name, "gone.png") {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":{"code":404,"message":"No such object"}}`))
				return
			}

			deleted = append(deleted, name)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)

	step, err := erasure.NewGCSStep(
		context.Background(),
		"uploads",
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
	)
	require.Nil(t, err)

	// Act
	n, err := step.Erase(context.Background(), id)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, prefix, listedPrefix)
	require.Equal(t, []string{prefix + "avatar.png"}, deleted)
}

func TestGCSStepListFailure(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	step, err := erasure.NewGCSStep(
		context.Background(),
		"uploads",
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
	)
	require.Nil(t, err)

	// Act
	_, err = step.Erase(context.Background(), uuid.New())

	// Assert
	require.ErrorIs(t, err, retention.ErrDependency)
}

func TestNewGCSStepRequiresBucket(t *testing.T) {
	// Act
	_, err := erasure.NewGCSStep(context.Background(), "", option.WithoutAuthentication())

	// Assert
	require.ErrorIs(t, err, retention.ErrBadConfig)
}
