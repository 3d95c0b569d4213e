package event

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber queue length used when Subscribe is
// given a non-positive size.
const DefaultBuffer = 64

// Broker fans envelopes out to per-tenant subscribers. Delivery is
// at-most-once: a subscriber whose queue is full misses the frame and is
// expected to re-query.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]*Subscription
	nextID uint64
	closed bool

	dropped atomic.Uint64
	logger  *slog.Logger
}

// NewBroker returns an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[string]map[uint64]*Subscription),
		logger: logger,
	}
}

// Subscription is one consumer's view of a tenant's events.
type Subscription struct {
	// C yields envelopes in commit order. It is closed by Close.
	C <-chan Envelope

	ch       chan Envelope
	id       uint64
	tenantID string
	broker   *Broker
	once     sync.Once
}

// TenantID returns the tenant this subscription listens to.
func (s *Subscription) TenantID() string { return s.tenantID }

// Close detaches the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		defer s.broker.mu.Unlock()
		if tenantSubs, ok := s.broker.subs[s.tenantID]; ok {
			if _, live := tenantSubs[s.id]; live {
				delete(tenantSubs, s.id)
				close(s.ch)
			}
			if len(tenantSubs) == 0 {
				delete(s.broker.subs, s.tenantID)
			}
		}
	})
}

// Subscribe registers interest in one tenant's events.
func (b *Broker) Subscribe(tenantID string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Envelope, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{C: ch, ch: ch, id: b.nextID, tenantID: tenantID, broker: b}
	if b.closed {
		close(ch)
		return sub
	}
	if b.subs[tenantID] == nil {
		b.subs[tenantID] = make(map[uint64]*Subscription)
	}
	b.subs[tenantID][sub.id] = sub
	return sub
}

// Publish implements Publisher. It never blocks.
func (b *Broker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[env.TenantID] {
		select {
		case sub.ch <- env:
		default:
			b.dropped.Add(1)
			b.logger.Debug("event dropped for slow subscriber",
				"tenant_id", env.TenantID,
				"type", env.Type,
				"subscription", sub.id,
			)
		}
	}
	return nil
}

// Subscribers counts live subscriptions for a tenant.
func (b *Broker) Subscribers(tenantID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[tenantID])
}

// Dropped counts frames discarded because a subscriber queue was full.
func (b *Broker) Dropped() uint64 { return b.dropped.Load() }

// Close closes every subscription. Later subscriptions are closed at once.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for tenantID, tenantSubs := range b.subs {
		for _, sub := range tenantSubs {
			close(sub.ch)
		}
		delete(b.subs, tenantID)
	}
}
