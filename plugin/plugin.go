// Package plugin lets extensions observe the ledger. Hooks run after a
// mutation has committed; a failing or slow hook is logged and never
// affects the caller.
package plugin

import (
	"context"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/product"
)

// Plugin is implemented by every extension.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit runs when the ledger starts. l is the *ledger.Ledger.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown runs when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Event hooks
// ──────────────────────────────────────────────────

// OnEvent receives every committed envelope, whatever its variant. Relays
// that forward frames to other processes implement this.
type OnEvent interface {
	Plugin
	OnEvent(ctx context.Context, env event.Envelope) error
}

// OnTableUpdated receives table changes.
type OnTableUpdated interface {
	Plugin
	OnTableUpdated(ctx context.Context, tenantID string, e event.TableUpdated) error
}

// OnOrderUpdated receives changes to open orders.
type OnOrderUpdated interface {
	Plugin
	OnOrderUpdated(ctx context.Context, tenantID string, e event.OrderUpdated) error
}

// OnOrderClosed receives paid orders.
type OnOrderClosed interface {
	Plugin
	OnOrderClosed(ctx context.Context, tenantID string, e event.OrderClosed) error
}

// OnStockAdjusted receives manual stock movements.
type OnStockAdjusted interface {
	Plugin
	OnStockAdjusted(ctx context.Context, tenantID string, e event.StockAdjusted) error
}

// ──────────────────────────────────────────────────
// Notification hooks
// ──────────────────────────────────────────────────

// OnLowStock fires when a movement takes a tracked product from healthy to
// low or out of stock.
type OnLowStock interface {
	Plugin
	OnLowStock(ctx context.Context, tenantID string, p *product.Product) error
}

// OnRejected fires when a mutating call fails. op is the operation name.
type OnRejected interface {
	Plugin
	OnRejected(ctx context.Context, tenantID, op string, err error) error
}
