// Package kafka relays floor events to a Kafka topic keyed by tenant id, so
// each tenant's frames stay ordered within one partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/relay"
)

// MessageWriter is the subset of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink writes each envelope as one message.
type Sink struct {
	writer MessageWriter
}

var _ relay.Sink = (*Sink)(nil)

// NewSink creates a Sink over w.
func NewSink(w MessageWriter) *Sink {
	return &Sink{writer: w}
}

// Send implements relay.Sink.
func (s *Sink) Send(ctx context.Context, env event.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay/kafka: encode: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(env.TenantID),
		Value: payload,
		Time:  env.Time(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("relay/kafka: write: %w", err)
	}
	return nil
}

// Close implements relay.Sink.
func (s *Sink) Close() error { return s.writer.Close() }

// NewWriter returns a writer for topic that hashes message keys, so one
// tenant always lands on the same partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewRelay returns a relay plugin writing to topic.
func NewRelay(brokers []string, topic string, opts ...relay.Option) *relay.Relay {
	return relay.New("kafka-relay", NewSink(NewWriter(brokers, topic)), opts...)
}
