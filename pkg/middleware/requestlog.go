package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/arasverel/tgpanel/pkg/contextkeys"
	"github.com/arasverel/tgpanel/pkg/httputil"
	"github.com/arasverel/tgpanel/pkg/observability"
)

// RequestLogMiddleware tags every request with an id, logs it on completion,
// and feeds the HTTP metrics.
type RequestLogMiddleware struct {
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRequestLogMiddleware creates the logging middleware
func NewRequestLogMiddleware(logger *observability.Logger, metrics *observability.Metrics) *RequestLogMiddleware {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &RequestLogMiddleware{logger: logger, metrics: metrics}
}

// Handler wraps next with request logging. Register it with the router's
// Use so the matched route is visible; the metric path falls back to the
// raw URL path for requests that never matched a route.
func (m *RequestLogMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(contextkeys.WithRequestID(r.Context(), requestID))

		rec := httputil.NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		// Use the route template so metrics do not explode on path params.
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		if m.metrics != nil {
			m.metrics.ObserveHTTPRequest(r.Method, path, rec.StatusCode, duration)
		}

		m.logger.WithFields(map[string]any{
			"requestId":  requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.StatusCode,
			"durationMs": duration.Milliseconds(),
			"ip":         httputil.ClientIP(r),
		}).Info("request completed")
	})
}
