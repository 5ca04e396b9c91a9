package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	k "github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	w *k.Writer
}

// NewKafkaPublisher создаёт асинхронный writer, запись в брокер не блокирует мутацию.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &k.Writer{
		Addr:         k.TCP(brokers...),
		Topic:        topic,
		Balancer:     &k.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: k.RequireOne,
		Async:        true,
	}
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.w.WriteMessages(ctx, k.Message{
		Key:   []byte(e.ChatID),
		Value: value,
		Time:  e.At,
		Headers: []k.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// ParseBrokers разбирает "host1:9092,host2:9092".
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
