package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.Handle("GET /metrics", m.Handler())

	srv := httptest.NewServer(m.Middleware(mux))
	defer srv.Close()

	get := func(t *testing.T, path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck
		return resp.StatusCode, string(body)
	}

	get(t, "/api/posts/1")
	get(t, "/api/posts/2")
	get(t, "/nowhere")

	assert.InDelta(t, 2, promtest.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/posts/{id}", "404")), 0, "requests should be labelled by route")
	assert.InDelta(t, 1, promtest.ToFloat64(m.requests.WithLabelValues("GET", unmatchedRoute, "404")), 0)

	code, body := get(t, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "socialfeed_http_requests_total")
	assert.Contains(t, body, "socialfeed_http_request_duration_seconds")

	t.Run("registering twice fails", func(t *testing.T) {
		_, err := NewMetrics(reg)

		require.Error(t, err)
	})
}
