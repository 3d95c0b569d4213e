package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/types"
)

// ──────────────────────────────────────────────────
// Stock Ledger
// ──────────────────────────────────────────────────

// StockReasons lists the reasons offered for manual adjustments.
func StockReasons() []string { return slices.Clone(audit.Reasons) }

// AdjustStock changes a tracked product's stock by delta and journals the
// movement. The result may not go below zero.
func (l *Ledger) AdjustStock(ctx context.Context, tenantID string, productID id.ProductID, actorID id.UserID, delta int64, reason string) (*product.Product, *audit.Log, error) {
	var (
		out   *product.Product
		entry *audit.Log
	)
	err := l.mutate(ctx, tenantID, "adjust_stock", func(ctx context.Context, m *mutation) error {
		reason = strings.TrimSpace(reason)
		switch {
		case delta == 0:
			return invalid("delta", "must not be zero")
		case delta > product.MaxStock || delta < -product.MaxStock:
			return invalid("delta", "must be within ±%d", product.MaxStock)
		case reason == "":
			return invalid("reason", "is required")
		}
		if !actorID.IsNil() {
			if _, err := l.store.GetUser(ctx, tenantID, actorID); err != nil {
				return err
			}
			m.actor = actorID
		}

		p, err := l.product(ctx, m, productID)
		if err != nil {
			return err
		}
		if !p.StockEnabled {
			return invalid("product_id", "product %s does not track stock", p.ID)
		}

		entry, err = m.move(p, delta, reason, id.Nil)
		if err != nil {
			return err
		}
		out = p
		m.event = event.StockAdjusted{
			ProductID: p.ID,
			Before:    entry.Before.Stock,
			After:     entry.After.Stock,
			Reason:    entry.Reason,
			ActorID:   entry.ActorID,
			AuditID:   entry.ID,
			State:     p.StockState(),
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out.Clone(), entry, nil
}

// move applies delta to p, stages it together with its audit entry and notes
// a drop into low or out of stock. p must be a working copy of m.
func (m *mutation) move(p *product.Product, delta int64, reason string, ref id.ID) (*audit.Log, error) {
	before := p.StockQuantity
	after, err := types.AddInt64(before, delta)
	switch {
	case err != nil:
		return nil, invalid("delta", "stock change for %s is out of range", p.Name)
	case after < 0:
		return nil, &InsufficientStockError{ProductID: p.ID.String(), Available: before, Requested: -delta}
	case after > product.MaxStock:
		return nil, invalid("delta", "stock of %s would exceed %d", p.Name, product.MaxStock)
	}

	prev := p.StockState()
	p.StockQuantity = after
	p.Touch(m.at)

	entry := &audit.Log{
		ID:          id.NewAuditID(),
		TenantID:    p.TenantID,
		Action:      audit.ActionStockAdjust,
		EntityID:    p.ID,
		Before:      audit.Snapshot{Stock: before},
		After:       audit.Snapshot{Stock: after},
		Reason:      reason,
		ActorID:     m.actor,
		ReferenceID: ref,
		Timestamp:   m.at,
	}
	m.batch.PutProduct(p)
	m.batch.AppendAudit(entry)

	if worsened(prev, p.StockState()) {
		m.lowStock = slices.DeleteFunc(m.lowStock, func(x *product.Product) bool { return x.ID == p.ID })
		m.lowStock = append(m.lowStock, p.Clone())
	}
	return entry, nil
}

// worsened reports a move into low stock or out of stock.
func worsened(from, to product.StockState) bool {
	switch to {
	case product.StockLow:
		return from == product.StockOK
	case product.StockOut:
		return from == product.StockOK || from == product.StockLow
	}
	return false
}

// stockLevels reports the current level of every tracked product m touched.
func (m *mutation) stockLevels() []event.StockLevel {
	var out []event.StockLevel
	for _, p := range m.batch.Products {
		if !p.StockEnabled {
			continue
		}
		out = append(out, event.StockLevel{ProductID: p.ID, Quantity: p.StockQuantity, State: p.StockState()})
	}
	return out
}
