package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/utils/health", r.URL.Path)
		w.Write([]byte(`{"health":"healthy","message":"ok"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	out, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", out["health"])
}

func TestDo_RetriesOn5xxThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"health":"healthy"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	out, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "healthy", out["health"])
}

func TestDo_DoesNotRetryOn4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"not found"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	var out map[string]interface{}
	err := client.GetDocument(context.Background(), 1, &out)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
