package order

import (
	"context"
	"time"

	"github.com/gastroflow/ledger/id"
)

// Store reads orders. Writes go through the unified store batch.
type Store interface {
	GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*Order, error)
	GetOpenOrderForTable(ctx context.Context, tenantID string, tableID id.TableID) (*Order, error)
	ListOrders(ctx context.Context, tenantID string, opts ListOpts) ([]*Order, error)
}

// ListOpts filters ListOrders. Results are newest first.
type ListOpts struct {
	Status     Status
	TableID    id.TableID
	From       time.Time // inclusive, on CreatedAt
	To         time.Time // exclusive, on CreatedAt
	ItemStatus []ItemStatus
	Limit      int
	Offset     int
}

// Match applies every filter except paging.
func (o ListOpts) Match(ord *Order) bool {
	if o.Status != "" && ord.Status != o.Status {
		return false
	}
	if !o.TableID.IsNil() && ord.TableID != o.TableID {
		return false
	}
	if !o.From.IsZero() && ord.CreatedAt.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !ord.CreatedAt.Before(o.To) {
		return false
	}
	if len(o.ItemStatus) > 0 && !ord.HasItemStatus(o.ItemStatus...) {
		return false
	}
	return true
}
