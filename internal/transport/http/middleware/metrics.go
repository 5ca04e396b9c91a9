package httpmw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cwrk-planet/chat-service/internal/metrics"
)

// Metrics считает запросы по шаблону маршрута, а не по сырому пути.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		op := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			op = r.Method + " " + rc.RoutePattern()
		}
		metrics.ObserveCode("http", op, StatusCode(sw.Status()), start)
	})
}

func StatusCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusTooManyRequests:
		return "rate_limited"
	}
	if status >= 500 {
		return "internal"
	}
	return "ok"
}
