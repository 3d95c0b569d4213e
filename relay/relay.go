// Package relay forwards committed envelopes to another system through a
// Sink. A Relay is a ledger plugin: OnEvent only enqueues, and one worker
// drains the queue in order, so a slow broker never holds up a mutation.
// Frames that do not fit in the queue are dropped and counted. The worker
// owns the sink and closes it once it stops sending.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/plugin"
)

// Sink delivers one envelope.
type Sink interface {
	Send(ctx context.Context, env event.Envelope) error
	Close() error
}

// Ensure Relay implements the plugin hooks it uses.
var (
	_ plugin.OnEvent    = (*Relay)(nil)
	_ plugin.OnShutdown = (*Relay)(nil)
)

// Relay queues envelopes for a Sink.
type Relay struct {
	name        string
	sink        Sink
	logger      *slog.Logger
	sendTimeout time.Duration

	mu       sync.RWMutex
	closed   bool
	queue    chan event.Envelope
	abandon  chan struct{}
	done     chan struct{}
	closeErr error

	sent    atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// WithQueueSize sets the queue length (default 1024).
func WithQueueSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.queue = make(chan event.Envelope, n)
		}
	}
}

// WithSendTimeout bounds each Sink.Send (default 5s).
func WithSendTimeout(d time.Duration) Option {
	return func(r *Relay) { r.sendTimeout = d }
}

// New starts a relay named name over sink.
func New(name string, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		name:        name,
		sink:        sink,
		logger:      slog.Default(),
		sendTimeout: 5 * time.Second,
		queue:       make(chan event.Envelope, 1024),
		abandon:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Name implements plugin.Plugin.
func (r *Relay) Name() string { return r.name }

// OnEvent implements plugin.OnEvent.
func (r *Relay) OnEvent(_ context.Context, env event.Envelope) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return errors.New("relay: closed")
	}
	select {
	case r.queue <- env:
		return nil
	default:
		r.dropped.Add(1)
		return errors.New("relay: queue full, frame dropped")
	}
}

// OnShutdown implements plugin.OnShutdown. It waits for the queue to flush
// and the sink to close. If ctx ends first, the frames still queued are
// dropped and the worker closes the sink after the send in flight returns.
func (r *Relay) OnShutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
		return r.closeErr
	case <-ctx.Done():
		close(r.abandon)
		r.logger.Warn("relay: shutdown before queue drained", "relay", r.name, "pending", len(r.queue))
		return ctx.Err()
	}
}

// Stats reports delivered, failed and dropped frame counts.
func (r *Relay) Stats() (sent, failed, dropped uint64) {
	return r.sent.Load(), r.failed.Load(), r.dropped.Load()
}

// Done is closed once the worker has stopped and the sink is closed.
func (r *Relay) Done() <-chan struct{} { return r.done }

func (r *Relay) run() {
	defer close(r.done)
	for env := range r.queue {
		select {
		case <-r.abandon:
			r.dropped.Add(1)
			continue
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.sendTimeout)
		err := r.sink.Send(ctx, env)
		cancel()
		if err != nil {
			r.failed.Add(1)
			r.logger.Error("relay: send failed",
				"relay", r.name,
				"tenant_id", env.TenantID,
				"type", string(env.Type),
				"error", err,
			)
			continue
		}
		r.sent.Add(1)
	}
	r.closeErr = r.sink.Close()
}
