package events

import (
	"context"
	"testing"
)

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if ParseBrokers("") != nil {
		t.Fatalf("empty string must yield nil")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_ = r.Publish(context.Background(), Event{Type: MessageCreated, ChatID: "c1"})
	_ = r.Publish(context.Background(), Event{Type: ChatPinned, ChatID: "c1"})
	types := r.Types()
	if len(types) != 2 || types[1] != ChatPinned {
		t.Fatalf("unexpected types: %v", types)
	}
}
