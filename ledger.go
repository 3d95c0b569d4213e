package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/plugin"
	"github.com/gastroflow/ledger/store"
)

// instrumentationName names the tracer used when WithTracer is not given.
const instrumentationName = "github.com/gastroflow/ledger"

// Ledger is the floor state engine. It owns every write to tables, orders,
// stock and the audit journal of each tenant.
type Ledger struct {
	store      store.Store
	plugins    *plugin.Registry
	broker     *event.Broker
	publishers []event.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
	validate   *validator.Validate
	now        func() time.Time

	skipMigrate bool

	// Per-tenant write slots, created on first use.
	slotsMu sync.Mutex
	slots   map[string]chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Ledger over s.
func New(s store.Store, opts ...Option) *Ledger {
	logger := slog.Default()
	l := &Ledger{
		store:    s,
		plugins:  plugin.NewRegistry().WithLogger(logger),
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		validate: newValidator(),
		now:      time.Now,
		slots:    make(map[string]chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}
	if l.broker == nil {
		l.broker = event.NewBroker(l.logger)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.logger.Warn("plugin not registered", "name", p.Name(), "error", err)
		}
	}
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithBroker replaces the in-process broker, e.g. to share one between
// several ledgers in tests.
func WithBroker(b *event.Broker) Option {
	return func(l *Ledger) {
		l.broker = b
	}
}

// WithPublisher adds a publisher that receives every committed envelope
// after the broker. Publishers must not block.
func WithPublisher(p event.Publisher) Option {
	return func(l *Ledger) {
		l.publishers = append(l.publishers, p)
	}
}

// WithTracer sets the OpenTelemetry tracer used for mutation spans.
func WithTracer(t trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = t
	}
}

// WithoutMigrate makes Start skip schema migration, for stores managed by
// an external migration tool.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	var err error
	l.startOnce.Do(func() {
		if !l.skipMigrate {
			if err = l.store.Migrate(ctx); err != nil {
				return
			}
		}
		l.plugins.EmitInit(ctx, l)
		l.logger.Info("ledger started", "plugins", len(l.plugins.Plugins()))
	})
	return err
}

// Stop closes subscriptions, notifies plugins and closes the store.
func (l *Ledger) Stop() error {
	var err error
	l.stopOnce.Do(func() {
		l.broker.Close()
		l.plugins.EmitShutdown(context.Background())
		err = l.store.Close()
		l.logger.Info("ledger stopped")
	})
	return err
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Subscribe delivers the tenant's committed events in commit order. A
// subscriber that falls more than buffer frames behind misses frames and
// must re-query.
func (l *Ledger) Subscribe(tenantID string, buffer int) *event.Subscription {
	return l.broker.Subscribe(tenantID, buffer)
}

// Broker returns the in-process broker.
func (l *Ledger) Broker() *event.Broker { return l.broker }

// Health pings the store.
func (l *Ledger) Health(ctx context.Context) error {
	return l.store.Ping(ctx)
}
