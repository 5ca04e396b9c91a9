package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

var (
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Requests by transport, operation and result code.",
	}, []string{"transport", "op", "code"})

	Latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_request_duration_seconds",
		Help:    "Request latency by transport and operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transport", "op"})

	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Messages stored (user, bot and forwarded).",
	})
	DuplicateSends = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_duplicate_sends_total",
		Help: "Sends answered from an already stored client tag.",
	})
	ReadsMarked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_reads_marked_total",
		Help: "Read receipts written.",
	})
	EventPublishFail = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_event_publish_fail_total",
		Help: "Domain events that failed to reach the broker.",
	})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_rate_limited_total",
		Help: "Mutations rejected by the rate limiter.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		Requests, Latency,
		MessagesSent, DuplicateSends, ReadsMarked,
		EventPublishFail, RateLimited,
	)
}

// Code: короткая метка результата по доменной ошибке.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrNotMember), errors.Is(err, domain.ErrInsufficientRole), errors.Is(err, domain.ErrNotAuthor):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvariantViolation):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	}
	return "internal"
}

func Observe(transport, op string, start time.Time, err error) {
	ObserveCode(transport, op, Code(err), start)
}

func ObserveCode(transport, op, code string, start time.Time) {
	Requests.WithLabelValues(transport, op, code).Inc()
	Latency.WithLabelValues(transport, op).Observe(time.Since(start).Seconds())
}
