// Package audithook bridges committed floor events and rejected operations
// to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular trail. Callers inject a RecorderFunc adapter at wiring
// time; SlogRecorder writes to a structured logger.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/plugin"
	"github.com/gastroflow/ledger/product"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin          = (*Extension)(nil)
	_ plugin.OnTableUpdated  = (*Extension)(nil)
	_ plugin.OnOrderUpdated  = (*Extension)(nil)
	_ plugin.OnOrderClosed   = (*Extension)(nil)
	_ plugin.OnStockAdjusted = (*Extension)(nil)
	_ plugin.OnLowStock      = (*Extension)(nil)
	_ plugin.OnRejected      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	TenantID   string         `json:"tenant_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// SlogRecorder returns a Recorder that logs every event at a level derived
// from its severity.
func SlogRecorder(logger *slog.Logger) Recorder {
	return RecorderFunc(func(ctx context.Context, evt *AuditEvent) error {
		level := slog.LevelInfo
		switch evt.Severity {
		case SeverityWarning:
			level = slog.LevelWarn
		case SeverityError, SeverityCritical:
			level = slog.LevelError
		}
		logger.Log(ctx, level, "audit",
			"tenant_id", evt.TenantID,
			"action", evt.Action,
			"resource", evt.Resource,
			"resource_id", evt.ResourceID,
			"outcome", evt.Outcome,
			"reason", evt.Reason,
			"metadata", evt.Metadata,
		)
		return nil
	})
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder    Recorder
	enabled     map[string]bool // nil = all enabled
	categories  map[string]bool // nil = all categories
	minSeverity int
	logger      *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Floor hooks
// ──────────────────────────────────────────────────

// OnTableUpdated implements plugin.OnTableUpdated.
func (e *Extension) OnTableUpdated(ctx context.Context, tenantID string, ev event.TableUpdated) error {
	action := ActionTableUpdated
	if !ev.OrderID.IsNil() {
		action = ActionTableOpened
	}
	return e.record(ctx, tenantID, action, SeverityInfo, OutcomeSuccess,
		ResourceTable, ev.Table.ID.String(), CategoryFloor, nil,
		"number", ev.Table.Number,
		"status", string(ev.Table.Status),
		"order_id", ev.OrderID.String(),
	)
}

// OnOrderUpdated implements plugin.OnOrderUpdated.
func (e *Extension) OnOrderUpdated(ctx context.Context, tenantID string, ev event.OrderUpdated) error {
	return e.record(ctx, tenantID, ActionOrderUpdated, SeverityInfo, OutcomeSuccess,
		ResourceOrder, ev.Order.ID.String(), CategorySales, nil,
		"items", len(ev.Order.Items),
		"total", ev.Order.Total.String(),
		"stock_moves", len(ev.Stock),
	)
}

// ──────────────────────────────────────────────────
// Sales hooks
// ──────────────────────────────────────────────────

// OnOrderClosed implements plugin.OnOrderClosed.
func (e *Extension) OnOrderClosed(ctx context.Context, tenantID string, ev event.OrderClosed) error {
	return e.record(ctx, tenantID, ActionOrderClosed, SeverityInfo, OutcomeSuccess,
		ResourceOrder, ev.Order.ID.String(), CategorySales, nil,
		"table", ev.Table.Number,
		"total", ev.Order.Total.String(),
		"payment_method", string(ev.Order.PaymentMethod),
		"closed_by", ev.Order.ClosedBy.String(),
		"delivered", countDelivered(ev.Order),
	)
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockAdjusted implements plugin.OnStockAdjusted.
func (e *Extension) OnStockAdjusted(ctx context.Context, tenantID string, ev event.StockAdjusted) error {
	severity := SeverityInfo
	if ev.Delta() < 0 {
		severity = SeverityWarning
	}
	return e.record(ctx, tenantID, ActionStockAdjusted, severity, OutcomeSuccess,
		ResourceProduct, ev.ProductID.String(), CategoryStock, nil,
		"before", ev.Before,
		"after", ev.After,
		"reason", ev.Reason,
		"actor_id", ev.ActorID.String(),
		"audit_id", ev.AuditID.String(),
	)
}

// OnLowStock implements plugin.OnLowStock.
func (e *Extension) OnLowStock(ctx context.Context, tenantID string, p *product.Product) error {
	action, severity := ActionStockLow, SeverityWarning
	if p.StockState() == product.StockOut {
		action, severity = ActionStockOut, SeverityError
	}
	return e.record(ctx, tenantID, action, severity, OutcomeSuccess,
		ResourceProduct, p.ID.String(), CategoryStock, nil,
		"name", p.Name,
		"quantity", p.StockQuantity,
		"minimum", p.StockMin,
	)
}

// ──────────────────────────────────────────────────
// Rejections
// ──────────────────────────────────────────────────

// OnRejected implements plugin.OnRejected. Caller mistakes are warnings;
// anything the ledger could not classify is an error.
func (e *Extension) OnRejected(ctx context.Context, tenantID, op string, err error) error {
	kind := ledger.Kind(err)
	severity := SeverityWarning
	if kind == "internal" {
		severity = SeverityError
	}
	return e.record(ctx, tenantID, ActionOperationRejected, severity, OutcomeFailure,
		ResourceTenant, tenantID, CategoryControl, err,
		"operation", op,
		"kind", kind,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	tenantID, action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.wants(action, category, severity) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		TenantID:   tenantID,
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

func (e *Extension) wants(action, category, severity string) bool {
	if e.enabled != nil && !e.enabled[action] {
		return false
	}
	if e.categories != nil && !e.categories[category] {
		return false
	}
	return severityRank[severity] >= e.minSeverity
}

func countDelivered(o *order.Order) int {
	n := 0
	for _, it := range o.Items {
		if it.Status == order.ItemDelivered {
			n++
		}
	}
	return n
}
