package ledger

import (
	"context"
	"slices"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

// ──────────────────────────────────────────────────
// Query Layer
// ──────────────────────────────────────────────────
//
// Queries read the last committed state and never wait for the tenant
// slot. Filters that match nothing yield an empty result, not an error.

// GetTenant returns the tenant account.
func (l *Ledger) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	return l.store.GetTenant(ctx, tenantID)
}

// GetTable returns one table.
func (l *Ledger) GetTable(ctx context.Context, tenantID string, tableID id.TableID) (*table.Table, error) {
	return l.store.GetTable(ctx, tenantID, tableID)
}

// GetOrder returns one order.
func (l *Ledger) GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	return l.store.GetOrder(ctx, tenantID, orderID)
}

// GetProduct returns one product.
func (l *Ledger) GetProduct(ctx context.Context, tenantID string, productID id.ProductID) (*product.Product, error) {
	return l.store.GetProduct(ctx, tenantID, productID)
}

// GetCategory returns one category.
func (l *Ledger) GetCategory(ctx context.Context, tenantID string, categoryID id.CategoryID) (*category.Category, error) {
	return l.store.GetCategory(ctx, tenantID, categoryID)
}

// GetActiveOrderForTable returns the table's OPEN order, or nil when the
// table is free.
func (l *Ledger) GetActiveOrderForTable(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	o, err := l.store.GetOpenOrderForTable(ctx, tenantID, tableID)
	if IsNotFound(err) {
		return nil, nil //nolint:nilnil // absent is a valid answer
	}
	return o, err
}

// ListTables returns tables sorted by number.
func (l *Ledger) ListTables(ctx context.Context, tenantID string, opts table.ListOpts) ([]*table.Table, error) {
	return nonNil(l.store.ListTables(ctx, tenantID, opts))
}

// ListOrders returns orders newest first.
func (l *Ledger) ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	return nonNil(l.store.ListOrders(ctx, tenantID, opts))
}

// ListProducts returns products sorted by name.
func (l *Ledger) ListProducts(ctx context.Context, tenantID string, opts product.ListOpts) ([]*product.Product, error) {
	return nonNil(l.store.ListProducts(ctx, tenantID, opts))
}

// ListCategories returns categories by display rank.
func (l *Ledger) ListCategories(ctx context.Context, tenantID string) ([]*category.Category, error) {
	return nonNil(l.store.ListCategories(ctx, tenantID))
}

// ListAuditLogs returns journal entries newest first.
func (l *Ledger) ListAuditLogs(ctx context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Log, error) {
	return nonNil(l.store.ListAuditLogs(ctx, tenantID, opts))
}

// ListUsers returns staff accounts sorted by name.
func (l *Ledger) ListUsers(ctx context.Context, tenantID string, opts user.ListOpts) ([]*user.User, error) {
	return nonNil(l.store.ListUsers(ctx, tenantID, opts))
}

// KitchenQueue returns OPEN orders with lines being prepared or ready,
// oldest first.
func (l *Ledger) KitchenQueue(ctx context.Context, tenantID string) ([]*order.Order, error) {
	orders, err := l.store.ListOrders(ctx, tenantID, order.ListOpts{
		Status:     order.StatusOpen,
		ItemStatus: []order.ItemStatus{order.ItemPreparing, order.ItemReady},
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(orders)
	return nonNil(orders, nil)
}

// StockAlerts returns tracked products at or below their minimum.
func (l *Ledger) StockAlerts(ctx context.Context, tenantID string) ([]*product.Product, error) {
	return nonNil(l.store.ListProducts(ctx, tenantID, product.ListOpts{
		StockState: []product.StockState{product.StockLow, product.StockOut},
	}))
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
