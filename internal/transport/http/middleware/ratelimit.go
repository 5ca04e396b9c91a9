package httpmw

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/metrics"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit ограничивает мутации (всё, кроме GET/HEAD/OPTIONS) на пользователя.
// Недоступный лимитер запрос не блокирует.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := identity.CallerFrom(r.Context())
			if caller == nil || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := l.Allow(r.Context(), "user:"+strconv.FormatInt(int64(caller.UserID), 10))
			if err != nil {
				logger.FromContext(r.Context()).Warn("rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RateLimited.Inc()
				writeError(w, http.StatusTooManyRequests, "too many requests", "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
