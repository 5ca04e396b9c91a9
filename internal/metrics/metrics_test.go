package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrChannelWriteDenied, "forbidden"},
		{domain.ErrMessageNotFound, "not_found"},
		{fmt.Errorf("x: %w", domain.ErrNotAuthor), "forbidden"},
		{domain.ErrInvariantViolation, "conflict"},
		{domain.ErrRateLimited, "rate_limited"},
		{fmt.Errorf("boom"), "internal"},
	}
	for _, c := range cases {
		if got := Code(c.err); got != c.want {
			t.Fatalf("Code(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	Observe("http", "send", time.Now(), nil)
	Observe("http", "send", time.Now(), domain.ErrNotMember)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	codes := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "chat_requests_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "code" {
					codes[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if codes["ok"] != 1 || codes["forbidden"] != 1 {
		t.Fatalf("unexpected counters: %v", codes)
	}
}
