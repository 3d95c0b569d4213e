// Package order models a table's running tab (comanda) and the kitchen
// lifecycle of its items.
package order

import (
	"time"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/types"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusOpen Status = "OPEN"
	StatusPaid Status = "PAID"
)

// ItemStatus is the kitchen state of one order line.
type ItemStatus string

const (
	ItemPending   ItemStatus = "PENDING"
	ItemPreparing ItemStatus = "PREPARING"
	ItemReady     ItemStatus = "READY"
	ItemDelivered ItemStatus = "DELIVERED"
)

var itemFlow = []ItemStatus{ItemPending, ItemPreparing, ItemReady, ItemDelivered}

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	for _, v := range itemFlow {
		if v == s {
			return true
		}
	}
	return false
}

// Prev returns the status that directly precedes s in the kitchen flow.
func (s ItemStatus) Prev() (ItemStatus, bool) {
	for i := 1; i < len(itemFlow); i++ {
		if itemFlow[i] == s {
			return itemFlow[i-1], true
		}
	}
	return "", false
}

// Next returns the status that directly follows s.
func (s ItemStatus) Next() (ItemStatus, bool) {
	for i := 0; i < len(itemFlow)-1; i++ {
		if itemFlow[i] == s {
			return itemFlow[i+1], true
		}
	}
	return "", false
}

// PaymentMethod records how a closed order was settled.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Item is one order line. Name and Price are snapshots taken when the line
// was added, so later product edits never rewrite history.
type Item struct {
	ProductID id.ProductID `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int64        `json:"quantity"`
	Price     types.Money  `json:"price"`
	Status    ItemStatus   `json:"status"`
	SentAt    *time.Time   `json:"sent_at,omitempty"`
	AddedAt   time.Time    `json:"added_at"`
}

// MaxQuantity caps the units on one requested line.
const MaxQuantity = 9999

// Subtotal is Price × Quantity. It fails with types.ErrOverflow when the
// product does not fit in an int64.
func (it Item) Subtotal() (types.Money, error) { return it.Price.CheckedMultiply(it.Quantity) }

// ItemInput is a requested order line. Name and price are never taken from
// the caller.
type ItemInput struct {
	ProductID id.ProductID `json:"product_id"`
	Quantity  int64        `json:"quantity" validate:"gt=0,max=9999"`
}

// Order is the tab of one table occupancy. Immutable once PAID.
type Order struct {
	types.Entity
	ID            id.OrderID    `json:"id"`
	TenantID      string        `json:"tenant_id"`
	TableID       id.TableID    `json:"table_id"`
	Status        Status        `json:"status"`
	Items         []Item        `json:"items"`
	Total         types.Money   `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	ClosedAt      *time.Time    `json:"closed_at,omitempty"`
	ClosedBy      id.UserID     `json:"closed_by,omitzero"`
}

// New opens an empty order on a table.
func New(tenantID string, tableID id.TableID, currency string, now time.Time) *Order {
	return &Order{
		Entity:   types.NewEntity(now),
		ID:       id.NewOrderID(),
		TenantID: tenantID,
		TableID:  tableID,
		Status:   StatusOpen,
		Items:    []Item{},
		Total:    types.Zero(currency),
	}
}

// IsOpen reports whether the order still accepts changes.
func (o *Order) IsOpen() bool { return o.Status == StatusOpen }

// Clone returns a deep copy, safe to mutate.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]Item, len(o.Items))
	for i, it := range o.Items {
		if it.SentAt != nil {
			sent := *it.SentAt
			it.SentAt = &sent
		}
		c.Items[i] = it
	}
	if o.ClosedAt != nil {
		closed := *o.ClosedAt
		c.ClosedAt = &closed
	}
	return &c
}

// Recalculate sets Total to the sum of line subtotals. On overflow Total is
// left unchanged and types.ErrOverflow is returned.
func (o *Order) Recalculate() error {
	total := types.Zero(o.Total.Currency)
	for _, it := range o.Items {
		sub, err := it.Subtotal()
		if err != nil {
			return err
		}
		if total, err = total.CheckedAdd(sub); err != nil {
			return err
		}
	}
	o.Total = total
	return nil
}

// Find returns the index of the first line for productID in one of the
// given statuses, or -1.
func (o *Order) Find(productID id.ProductID, statuses ...ItemStatus) int {
	for i, it := range o.Items {
		if it.ProductID != productID {
			continue
		}
		for _, s := range statuses {
			if it.Status == s {
				return i
			}
		}
	}
	return -1
}

// HasProduct reports whether any line references productID.
func (o *Order) HasProduct(productID id.ProductID) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// RemoveAt drops line i, keeping the order of the remaining lines.
func (o *Order) RemoveAt(i int) Item {
	removed := o.Items[i]
	o.Items = append(o.Items[:i:i], o.Items[i+1:]...)
	return removed
}

// Advance moves every line in status from to status to and returns how many
// lines changed. Lines entering PREPARING are stamped with now.
func (o *Order) Advance(from, to ItemStatus, now time.Time) int {
	n := 0
	for i := range o.Items {
		if o.Items[i].Status != from {
			continue
		}
		o.Items[i].Status = to
		if to == ItemPreparing {
			sent := now.UTC()
			o.Items[i].SentAt = &sent
		}
		n++
	}
	return n
}

// HasItemStatus reports whether any line is in one of statuses.
func (o *Order) HasItemStatus(statuses ...ItemStatus) bool {
	for _, it := range o.Items {
		for _, s := range statuses {
			if it.Status == s {
				return true
			}
		}
	}
	return false
}
