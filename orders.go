package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/types"
)

// ──────────────────────────────────────────────────
// Order Ledger
// ──────────────────────────────────────────────────

// CreateOrder returns the table's OPEN order, opening the table first when
// there is none. Calling it again for the same table returns the same order
// and publishes nothing.
func (l *Ledger) CreateOrder(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	var out *order.Order
	err := l.mutate(ctx, tenantID, "create_order", func(ctx context.Context, m *mutation) error {
		existing, err := l.store.GetOpenOrderForTable(ctx, tenantID, tableID)
		switch {
		case err == nil:
			out = existing
			return nil
		case !IsNotFound(err):
			return err
		}
		out, err = l.open(ctx, m, tableID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// AddItems appends PENDING lines priced from the current catalog and takes
// tracked stock in the same commit. Either every line is added or none.
func (l *Ledger) AddItems(ctx context.Context, tenantID string, orderID id.OrderID, items []order.ItemInput) (*order.Order, error) {
	return l.changeOrder(ctx, tenantID, "add_items", orderID, func(ctx context.Context, m *mutation, o *order.Order) error {
		if len(items) == 0 {
			return invalid("items", "must not be empty")
		}

		// Requested quantity per tracked product, in first-seen order.
		var (
			wanted = make(map[id.ProductID]int64)
			seen   []id.ProductID
		)
		for i, in := range items {
			if err := l.check(in); err != nil {
				return itemErr(i, err)
			}
			p, err := l.product(ctx, m, in.ProductID)
			if err != nil {
				return itemErr(i, err)
			}
			if !p.IsActive {
				return invalid("items", "product %s is not available", p.Name)
			}
			if p.Price.Currency != o.Total.Currency {
				return invalid("items", "product %s is priced in %s, order is in %s", p.Name, p.Price.Currency, o.Total.Currency)
			}

			o.Items = append(o.Items, order.Item{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  in.Quantity,
				Price:     p.Price,
				Status:    order.ItemPending,
				AddedAt:   m.at,
			})
			if p.StockEnabled {
				if _, ok := wanted[p.ID]; !ok {
					seen = append(seen, p.ID)
				}
				n, err := types.AddInt64(wanted[p.ID], in.Quantity)
				if err != nil {
					return invalid("items", "quantity of %s is out of range", p.Name)
				}
				wanted[p.ID] = n
			}
		}

		for _, productID := range seen {
			if _, err := m.move(m.products[productID], -wanted[productID], audit.ReasonSale, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveItem drops the first PENDING line for productID and returns its
// stock. With force, a line already in the kitchen (PREPARING or READY) is
// removed instead when no PENDING line exists. Delivered lines are never
// removed.
func (l *Ledger) RemoveItem(ctx context.Context, tenantID string, orderID id.OrderID, productID id.ProductID, force bool) (*order.Order, error) {
	return l.changeOrder(ctx, tenantID, "remove_item", orderID, func(ctx context.Context, m *mutation, o *order.Order) error {
		i := o.Find(productID, order.ItemPending)
		if i < 0 {
			inKitchen := o.Find(productID, order.ItemPreparing, order.ItemReady)
			switch {
			case inKitchen >= 0 && force:
				i = inKitchen
			case inKitchen >= 0:
				return invalid("force", "item %s is already %s; removal must be forced", o.Items[inKitchen].Name, o.Items[inKitchen].Status)
			case o.Find(productID, order.ItemDelivered) >= 0:
				return conflict("order", o.ID, "item for product %s was already delivered", productID)
			default:
				return &NotFoundError{Entity: "order item", ID: productID.String()}
			}
		}

		removed := o.RemoveAt(i)
		p, err := l.product(ctx, m, removed.ProductID)
		switch {
		case IsNotFound(err):
			// Deleted from the catalog since; nothing to restock.
			return nil
		case err != nil:
			return err
		}
		if p.StockEnabled {
			if _, err := m.move(p, removed.Quantity, audit.ReasonCancel, o.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SendToKitchen moves every PENDING line to PREPARING. With nothing pending
// it returns the order untouched.
func (l *Ledger) SendToKitchen(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	return l.changeOrder(ctx, tenantID, "send_to_kitchen", orderID, func(_ context.Context, m *mutation, o *order.Order) error {
		if o.Advance(order.ItemPending, order.ItemPreparing, m.at) == 0 {
			return errNoChange
		}
		return nil
	})
}

// UpdateItemStatus moves the first line for productID that sits directly
// before status in the kitchen flow one step forward.
func (l *Ledger) UpdateItemStatus(ctx context.Context, tenantID string, orderID id.OrderID, productID id.ProductID, status order.ItemStatus) (*order.Order, error) {
	return l.changeOrder(ctx, tenantID, "update_item_status", orderID, func(_ context.Context, m *mutation, o *order.Order) error {
		if !status.Valid() {
			return invalid("status", "unknown item status %q", status)
		}
		from, ok := status.Prev()
		if !ok {
			return conflict("order", o.ID, "items cannot move back to %s", status)
		}

		i := o.Find(productID, from)
		if i < 0 {
			if !o.HasProduct(productID) {
				return &NotFoundError{Entity: "order item", ID: productID.String()}
			}
			return conflict("order", o.ID, "no %s item for product %s can move to %s", from, productID, status)
		}

		it := &o.Items[i]
		it.Status = status
		if status == order.ItemPreparing {
			sent := m.at
			it.SentAt = &sent
		}
		return nil
	})
}

// DeliverReadyItems moves every READY line to DELIVERED. With nothing ready
// it returns the order untouched.
func (l *Ledger) DeliverReadyItems(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	return l.changeOrder(ctx, tenantID, "deliver_ready_items", orderID, func(_ context.Context, m *mutation, o *order.Order) error {
		if o.Advance(order.ItemReady, order.ItemDelivered, m.at) == 0 {
			return errNoChange
		}
		return nil
	})
}

// CloseOrder records payment: the order becomes PAID and immutable and its
// table is released in the same commit.
func (l *Ledger) CloseOrder(ctx context.Context, tenantID string, orderID id.OrderID, actorID id.UserID, method order.PaymentMethod) (*order.Order, error) {
	var out *order.Order
	err := l.mutate(ctx, tenantID, "close_order", func(ctx context.Context, m *mutation) error {
		o, err := l.openOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return invalid("items", "cannot close an order without items")
		}
		if !method.Valid() {
			return invalid("payment_method", "unknown payment method %q", method)
		}
		if actorID.IsNil() {
			return invalid("actor_id", "is required")
		}
		if _, err := l.store.GetUser(ctx, tenantID, actorID); err != nil {
			return err
		}

		t, err := l.store.GetTable(ctx, tenantID, o.TableID)
		if err != nil {
			return err
		}

		closedAt := m.at
		o.Status = order.StatusPaid
		o.PaymentMethod = method
		o.ClosedAt = &closedAt
		o.ClosedBy = actorID
		if err := o.Recalculate(); err != nil {
			return totalErr(err)
		}
		o.Touch(m.at)

		t.Status = table.StatusAvailable
		t.Touch(m.at)

		m.batch.PutOrder(o)
		m.batch.PutTable(t)
		m.event = event.OrderClosed{Order: o.Clone(), Table: t.Clone()}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// changeOrder loads an OPEN order, lets fn change it, then recomputes the
// total and stages an order.updated event. fn returns errNoChange to leave
// the order as it was without publishing.
func (l *Ledger) changeOrder(ctx context.Context, tenantID, op string, orderID id.OrderID, fn func(context.Context, *mutation, *order.Order) error) (*order.Order, error) {
	var out *order.Order
	err := l.mutate(ctx, tenantID, op, func(ctx context.Context, m *mutation) error {
		o, err := l.openOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		out = o

		if err := fn(ctx, m, o); err != nil {
			if errors.Is(err, errNoChange) {
				return nil
			}
			return err
		}

		if err := o.Recalculate(); err != nil {
			return totalErr(err)
		}
		o.Touch(m.at)
		m.batch.PutOrder(o)
		m.event = event.OrderUpdated{Order: o.Clone(), Stock: m.stockLevels()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// openOrder loads an order and rejects it once paid.
func (l *Ledger) openOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	o, err := l.store.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOpen() {
		return nil, conflict("order", o.ID, "order is %s", o.Status)
	}
	return o, nil
}

func totalErr(err error) error {
	return &ValidationError{Field: "items", Message: "order total is out of range", Err: err}
}

func itemErr(i int, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: fmt.Sprintf("items[%d].%s", i, ve.Field), Message: ve.Message, Err: ve.Err}
	}
	return err
}
