package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/gorilla/mux"
)

// statusWriter records the status code and size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write records an implicit 200 for handlers that never call WriteHeader.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// observe logs every matched request and records its duration under the
// route template, so /api/plans/{id} stays a single series.
func observe(log *slog.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			m.HTTPRequestSeconds.
				WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).
				Observe(elapsed.Seconds())

			level := slog.LevelDebug
			if sw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "HTTP request",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"route", route,
				"status", sw.status,
				"bytes", sw.bytes,
				"elapsed", elapsed,
			)
		})
	}
}
