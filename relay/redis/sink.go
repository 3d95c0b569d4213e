// Package redis relays floor events over Redis pub/sub so that every
// process serving a tenant can fan its frames out to local clients.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/relay"
)

// DefaultPrefix starts every channel name.
const DefaultPrefix = "floor"

// Publisher is the subset of *redis.Client the sink uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Sink publishes each envelope as JSON on "<prefix>:<tenant>:events".
type Sink struct {
	client Publisher
	prefix string
}

var _ relay.Sink = (*Sink)(nil)

// NewSink creates a Sink. An empty prefix uses DefaultPrefix.
func NewSink(client Publisher, prefix string) *Sink {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Sink{client: client, prefix: prefix}
}

// Channel returns the channel carrying tenantID's frames.
func (s *Sink) Channel(tenantID string) string {
	return fmt.Sprintf("%s:%s:events", s.prefix, tenantID)
}

// Send implements relay.Sink.
func (s *Sink) Send(ctx context.Context, env event.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("relay/redis: encode: %w", err)
	}
	if err := s.client.Publish(ctx, s.Channel(env.TenantID), payload).Err(); err != nil {
		return fmt.Errorf("relay/redis: publish: %w", err)
	}
	return nil
}

// Close implements relay.Sink.
func (s *Sink) Close() error { return s.client.Close() }

// NewRelay connects to addr and returns a relay plugin publishing there.
func NewRelay(ctx context.Context, addr, password string, db int, opts ...relay.Option) (*relay.Relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("relay/redis: connect %s: %w", addr, err)
	}
	return relay.New("redis-relay", NewSink(client, DefaultPrefix), opts...), nil
}
