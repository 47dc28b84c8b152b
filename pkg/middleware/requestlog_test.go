package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arasverel/tgpanel/pkg/contextkeys"
	"github.com/arasverel/tgpanel/pkg/observability"
)

func TestRequestLogSetsRequestID(t *testing.T) {
	m := NewRequestLogMiddleware(nil, nil)

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextkeys.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestLogKeepsCallerRequestID(t *testing.T) {
	m := NewRequestLogMiddleware(nil, nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))
}

func TestRequestLogMetricsUseRouteTemplate(t *testing.T) {
	metrics := observability.NewMetrics(nil)
	m := NewRequestLogMiddleware(nil, metrics)

	r := mux.NewRouter()
	r.Use(m.Handler)
	r.HandleFunc("/things/{id:[0-9]+}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	metricsRec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(metricsRec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `path="/things/{id:[0-9]+}"`)
	assert.NotContains(t, string(body), `path="/things/42"`)
}
