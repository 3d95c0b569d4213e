package ledger

import (
	"context"
	"strings"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/types"
)

// ──────────────────────────────────────────────────
// Table State Machine
// ──────────────────────────────────────────────────

// OpenTable seats a party: the table becomes OCCUPIED and a new OPEN order is
// bound to it in the same commit.
func (l *Ledger) OpenTable(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	var out *order.Order
	err := l.mutate(ctx, tenantID, "open_table", func(ctx context.Context, m *mutation) error {
		if _, err := l.store.GetOpenOrderForTable(ctx, tenantID, tableID); err == nil {
			return conflict("table", tableID, "already has an open order")
		} else if !IsNotFound(err) {
			return err
		}
		o, err := l.open(ctx, m, tableID)
		out = o
		return err
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// open stages the table transition and the new order. The caller has already
// checked that no OPEN order exists for the table.
func (l *Ledger) open(ctx context.Context, m *mutation, tableID id.TableID) (*order.Order, error) {
	t, err := l.store.GetTable(ctx, m.tenant.ID, tableID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, invalid("table_id", "table %s has been removed", t.Number)
	}
	if !t.Status.CanOpen() {
		return nil, conflict("table", tableID, "is %s", t.Status)
	}

	o := order.New(m.tenant.ID, t.ID, m.tenant.CurrencyCode(), m.at)
	t.Status = table.StatusOccupied
	t.Touch(m.at)

	m.batch.PutTable(t)
	m.batch.PutOrder(o)
	m.event = event.TableUpdated{Table: t.Clone(), OrderID: o.ID}
	return o, nil
}

// InsertTable adds a table in AVAILABLE state. The plan caps active tables.
func (l *Ledger) InsertTable(ctx context.Context, tenantID string, req table.CreateRequest) (*table.Table, error) {
	var out *table.Table
	err := l.mutate(ctx, tenantID, "insert_table", func(ctx context.Context, m *mutation) error {
		req.Number = strings.TrimSpace(req.Number)
		req.Zone = strings.TrimSpace(req.Zone)
		if err := l.check(req); err != nil {
			return err
		}

		existing, err := l.store.ListTables(ctx, tenantID, table.ListOpts{})
		if err != nil {
			return err
		}
		if limit := m.tenant.Limits().Tables; len(existing) >= limit {
			return planLimit("tables", limit)
		}
		if err := uniqueNumber(existing, req.Number, id.Nil); err != nil {
			return err
		}

		out = &table.Table{
			Entity:   types.NewEntity(m.at),
			ID:       id.NewTableID(),
			TenantID: tenantID,
			Number:   req.Number,
			Capacity: req.Capacity,
			Zone:     req.Zone,
			Status:   table.StatusAvailable,
			IsActive: true,
		}
		m.batch.PutTable(out)
		m.event = event.TableUpdated{Table: out.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// UpdateTable edits a table. Status may only move between AVAILABLE and
// RESERVED here; occupancy follows orders.
func (l *Ledger) UpdateTable(ctx context.Context, tenantID string, tableID id.TableID, req table.UpdateRequest) (*table.Table, error) {
	var out *table.Table
	err := l.mutate(ctx, tenantID, "update_table", func(ctx context.Context, m *mutation) error {
		if err := l.check(req); err != nil {
			return err
		}
		t, err := l.store.GetTable(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		if !t.IsActive {
			return invalid("table_id", "table %s has been removed", t.Number)
		}

		if req.Number != nil {
			number := strings.TrimSpace(*req.Number)
			if number == "" {
				return invalid("number", "is required")
			}
			if number != t.Number {
				existing, err := l.store.ListTables(ctx, tenantID, table.ListOpts{})
				if err != nil {
					return err
				}
				if err := uniqueNumber(existing, number, t.ID); err != nil {
					return err
				}
			}
			t.Number = number
		}
		if req.Capacity != nil {
			t.Capacity = *req.Capacity
		}
		if req.Zone != nil {
			t.Zone = strings.TrimSpace(*req.Zone)
		}
		if req.Status != nil && *req.Status != t.Status {
			if !table.ManualTransition(t.Status, *req.Status) {
				return conflict("table", t.ID, "cannot change status from %s to %s", t.Status, *req.Status)
			}
			t.Status = *req.Status
		}

		t.Touch(m.at)
		out = t
		m.batch.PutTable(t)
		m.event = event.TableUpdated{Table: t.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// RemoveTable soft-deletes a table so historical orders keep their
// reference. An occupied table cannot be removed.
func (l *Ledger) RemoveTable(ctx context.Context, tenantID string, tableID id.TableID) error {
	return l.mutate(ctx, tenantID, "remove_table", func(ctx context.Context, m *mutation) error {
		t, err := l.store.GetTable(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		if !t.IsActive {
			return nil
		}
		if t.Status == table.StatusOccupied {
			return invalid("table_id", "table %s is occupied", t.Number)
		}

		t.IsActive = false
		t.Status = table.StatusAvailable
		t.Touch(m.at)
		m.batch.PutTable(t)
		m.event = event.TableUpdated{Table: t.Clone()}
		return nil
	})
}

// uniqueNumber rejects a display number already used by another active table.
func uniqueNumber(tables []*table.Table, number string, self id.TableID) error {
	for _, t := range tables {
		if t.ID != self && strings.EqualFold(t.Number, number) {
			return &ConflictError{Entity: "table", ID: t.ID.String(), Message: "number " + number + " is already in use"}
		}
	}
	return nil
}
