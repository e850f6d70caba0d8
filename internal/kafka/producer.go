package kafka

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// CaseEventProducer — interface for publishing case lifecycle events
// (swappable with a mock in tests).
type CaseEventProducer interface {
	ProduceCaseEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer writes case events to a Kafka topic (best-effort, never blocks
// the API path).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer. With empty brokers or topic all methods
// are no-ops.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceCaseEvent publishes one event. payload: case_id, public_id,
// category_id, status, author_id, responsible_id.
func (p *Producer) ProduceCaseEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal case event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write case event: %v", err)
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits a broker list "host1:9092,host2:9092" into a slice.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
