package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/product"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry holds plugins and dispatches hooks. Hook implementations are
// resolved once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit          []OnInit
	onShutdown      []OnShutdown
	onEvent         []OnEvent
	onTableUpdated  []OnTableUpdated
	onOrderUpdated  []OnOrderUpdated
	onOrderClosed   []OnOrderClosed
	onStockAdjusted []OnStockAdjusted
	onLowStock      []OnLowStock
	onRejected      []OnRejected
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger used for registration and hook failures.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook deadline.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds p. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnEvent); ok {
		r.onEvent = append(r.onEvent, v)
		hooks = append(hooks, "OnEvent")
	}
	if v, ok := p.(OnTableUpdated); ok {
		r.onTableUpdated = append(r.onTableUpdated, v)
		hooks = append(hooks, "OnTableUpdated")
	}
	if v, ok := p.(OnOrderUpdated); ok {
		r.onOrderUpdated = append(r.onOrderUpdated, v)
		hooks = append(hooks, "OnOrderUpdated")
	}
	if v, ok := p.(OnOrderClosed); ok {
		r.onOrderClosed = append(r.onOrderClosed, v)
		hooks = append(hooks, "OnOrderClosed")
	}
	if v, ok := p.(OnStockAdjusted); ok {
		r.onStockAdjusted = append(r.onStockAdjusted, v)
		hooks = append(hooks, "OnStockAdjusted")
	}
	if v, ok := p.(OnLowStock); ok {
		r.onLowStock = append(r.onLowStock, v)
		hooks = append(hooks, "OnLowStock")
	}
	if v, ok := p.(OnRejected); ok {
		r.onRejected = append(r.onRejected, v)
		hooks = append(hooks, "OnRejected")
	}

	r.logger.Info("plugin registered", "name", p.Name(), "hooks", hooks)
	return nil
}

// Get returns the plugin registered under name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// ──────────────────────────────────────────────────
// Dispatch
// ──────────────────────────────────────────────────

// EmitInit runs every OnInit hook.
func (r *Registry) EmitInit(ctx context.Context, l any) {
	for _, p := range snapshot(r, func() []OnInit { return r.onInit }) {
		r.call(ctx, p.Name(), "OnInit", func(ctx context.Context) error { return p.OnInit(ctx, l) })
	}
}

// EmitShutdown runs every OnShutdown hook.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, p := range snapshot(r, func() []OnShutdown { return r.onShutdown }) {
		r.call(ctx, p.Name(), "OnShutdown", p.OnShutdown)
	}
}

// EmitEvent hands env to every OnEvent hook and then to the hooks typed for
// its variant.
func (r *Registry) EmitEvent(ctx context.Context, env event.Envelope) {
	for _, p := range snapshot(r, func() []OnEvent { return r.onEvent }) {
		r.call(ctx, p.Name(), "OnEvent", func(ctx context.Context) error { return p.OnEvent(ctx, env) })
	}

	tenantID := env.TenantID
	switch e := env.Payload.(type) {
	case event.TableUpdated:
		for _, p := range snapshot(r, func() []OnTableUpdated { return r.onTableUpdated }) {
			r.call(ctx, p.Name(), "OnTableUpdated", func(ctx context.Context) error {
				return p.OnTableUpdated(ctx, tenantID, e)
			})
		}
	case event.OrderUpdated:
		for _, p := range snapshot(r, func() []OnOrderUpdated { return r.onOrderUpdated }) {
			r.call(ctx, p.Name(), "OnOrderUpdated", func(ctx context.Context) error {
				return p.OnOrderUpdated(ctx, tenantID, e)
			})
		}
	case event.OrderClosed:
		for _, p := range snapshot(r, func() []OnOrderClosed { return r.onOrderClosed }) {
			r.call(ctx, p.Name(), "OnOrderClosed", func(ctx context.Context) error {
				return p.OnOrderClosed(ctx, tenantID, e)
			})
		}
	case event.StockAdjusted:
		for _, p := range snapshot(r, func() []OnStockAdjusted { return r.onStockAdjusted }) {
			r.call(ctx, p.Name(), "OnStockAdjusted", func(ctx context.Context) error {
				return p.OnStockAdjusted(ctx, tenantID, e)
			})
		}
	}
}

// EmitLowStock runs every OnLowStock hook.
func (r *Registry) EmitLowStock(ctx context.Context, tenantID string, p *product.Product) {
	for _, h := range snapshot(r, func() []OnLowStock { return r.onLowStock }) {
		r.call(ctx, h.Name(), "OnLowStock", func(ctx context.Context) error {
			return h.OnLowStock(ctx, tenantID, p)
		})
	}
}

// EmitRejected runs every OnRejected hook.
func (r *Registry) EmitRejected(ctx context.Context, tenantID, op string, err error) {
	for _, h := range snapshot(r, func() []OnRejected { return r.onRejected }) {
		r.call(ctx, h.Name(), "OnRejected", func(ctx context.Context) error {
			return h.OnRejected(ctx, tenantID, op, err)
		})
	}
}

// snapshot copies a hook list under the read lock so dispatch never holds it.
func snapshot[T any](r *Registry, hooks func() []T) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := hooks()
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// call runs fn under the registry timeout and logs any failure.
func (r *Registry) call(ctx context.Context, name, hook string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("plugin %s: %s: %w", name, hook, ctx.Err())
	}
	if err != nil {
		r.logger.Warn("plugin hook failed", "plugin", name, "hook", hook, "error", err)
	}
}
