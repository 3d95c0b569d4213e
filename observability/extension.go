// Package observability provides a metrics extension for the ledger that
// records floor activity through a MetricFactory.
package observability

import (
	"context"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/plugin"
	"github.com/gastroflow/ledger/product"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin          = (*MetricsExtension)(nil)
	_ plugin.OnInit          = (*MetricsExtension)(nil)
	_ plugin.OnEvent         = (*MetricsExtension)(nil)
	_ plugin.OnTableUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnOrderUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnOrderClosed   = (*MetricsExtension)(nil)
	_ plugin.OnStockAdjusted = (*MetricsExtension)(nil)
	_ plugin.OnLowStock      = (*MetricsExtension)(nil)
	_ plugin.OnRejected      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records floor metrics. Register it as a ledger plugin.
type MetricsExtension struct {
	factory MetricFactory

	// Event metrics
	EventsPublished Counter

	// Table metrics
	TablesOpened  Counter
	TablesUpdated Counter

	// Order metrics
	OrdersUpdated   Counter
	OrdersClosed    Counter
	OrderTotal      Histogram
	ItemsPerOrder   Histogram
	UnitsSold       Counter
	StockMovedByOps Counter

	// Stock metrics
	StockAdjustments Counter
	StockAdjustDelta Histogram
	StockLow         Counter
	StockOut         Counter

	// Rejection metrics
	RejectedValidation        Counter
	RejectedConflict          Counter
	RejectedInsufficientStock Counter
	RejectedNotFound          Counter
	RejectedInternal          Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		EventsPublished: factory.Counter("ledger.events.published"),

		TablesOpened:  factory.Counter("ledger.table.opened"),
		TablesUpdated: factory.Counter("ledger.table.updated"),

		OrdersUpdated:   factory.Counter("ledger.order.updated"),
		OrdersClosed:    factory.Counter("ledger.order.closed"),
		OrderTotal:      factory.Histogram("ledger.order.total_amount"),
		ItemsPerOrder:   factory.Histogram("ledger.order.items"),
		UnitsSold:       factory.Counter("ledger.order.units_sold"),
		StockMovedByOps: factory.Counter("ledger.order.stock_moves"),

		StockAdjustments: factory.Counter("ledger.stock.adjustments"),
		StockAdjustDelta: factory.Histogram("ledger.stock.adjust_delta"),
		StockLow:         factory.Counter("ledger.stock.low"),
		StockOut:         factory.Counter("ledger.stock.out"),

		RejectedValidation:        factory.Counter("ledger.rejected.validation"),
		RejectedConflict:          factory.Counter("ledger.rejected.conflict"),
		RejectedInsufficientStock: factory.Counter("ledger.rejected.insufficient_stock"),
		RejectedNotFound:          factory.Counter("ledger.rejected.not_found"),
		RejectedInternal:          factory.Counter("ledger.rejected.internal"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// OnEvent implements plugin.OnEvent.
func (m *MetricsExtension) OnEvent(_ context.Context, _ event.Envelope) error {
	m.EventsPublished.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Floor hooks
// ──────────────────────────────────────────────────

// OnTableUpdated implements plugin.OnTableUpdated.
func (m *MetricsExtension) OnTableUpdated(_ context.Context, _ string, e event.TableUpdated) error {
	if !e.OrderID.IsNil() {
		m.TablesOpened.Inc()
		return nil
	}
	m.TablesUpdated.Inc()
	return nil
}

// OnOrderUpdated implements plugin.OnOrderUpdated.
func (m *MetricsExtension) OnOrderUpdated(_ context.Context, _ string, e event.OrderUpdated) error {
	m.OrdersUpdated.Inc()
	m.StockMovedByOps.Add(float64(len(e.Stock)))
	return nil
}

// OnOrderClosed implements plugin.OnOrderClosed.
func (m *MetricsExtension) OnOrderClosed(_ context.Context, _ string, e event.OrderClosed) error {
	m.OrdersClosed.Inc()
	m.OrderTotal.Observe(float64(e.Order.Total.Amount))
	m.ItemsPerOrder.Observe(float64(len(e.Order.Items)))

	var units int64
	for _, it := range e.Order.Items {
		units += it.Quantity
	}
	m.UnitsSold.Add(float64(units))
	return nil
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockAdjusted implements plugin.OnStockAdjusted.
func (m *MetricsExtension) OnStockAdjusted(_ context.Context, _ string, e event.StockAdjusted) error {
	m.StockAdjustments.Inc()
	m.StockAdjustDelta.Observe(float64(e.Delta()))
	return nil
}

// OnLowStock implements plugin.OnLowStock.
func (m *MetricsExtension) OnLowStock(_ context.Context, _ string, p *product.Product) error {
	if p.StockState() == product.StockOut {
		m.StockOut.Inc()
		return nil
	}
	m.StockLow.Inc()
	return nil
}

// OnRejected implements plugin.OnRejected.
func (m *MetricsExtension) OnRejected(_ context.Context, _, _ string, err error) error {
	switch ledger.Kind(err) {
	case "validation":
		m.RejectedValidation.Inc()
	case "conflict":
		m.RejectedConflict.Inc()
	case "insufficient_stock":
		m.RejectedInsufficientStock.Inc()
	case "not_found":
		m.RejectedNotFound.Inc()
	default:
		m.RejectedInternal.Inc()
	}
	return nil
}
