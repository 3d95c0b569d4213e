// Package store defines the persistence contract of the ledger. Reads are
// tenant-scoped lookups; every write goes through Apply so that one ledger
// operation commits atomically or not at all.
package store

import (
	"context"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

// Store is the unified storage interface. Lookups of an id that is missing
// or belongs to another tenant return an error matching ledger.ErrNotFound.
type Store interface {
	// Tenant methods
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error)

	// Table methods
	GetTable(ctx context.Context, tenantID string, tableID id.TableID) (*table.Table, error)
	ListTables(ctx context.Context, tenantID string, opts table.ListOpts) ([]*table.Table, error)

	// Order methods
	GetOrder(ctx context.Context, tenantID string, orderID id.OrderID) (*order.Order, error)
	GetOpenOrderForTable(ctx context.Context, tenantID string, tableID id.TableID) (*order.Order, error)
	ListOrders(ctx context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error)

	// Product methods
	GetProduct(ctx context.Context, tenantID string, productID id.ProductID) (*product.Product, error)
	GetProductBySKU(ctx context.Context, tenantID, sku string) (*product.Product, error)
	ListProducts(ctx context.Context, tenantID string, opts product.ListOpts) ([]*product.Product, error)

	// Category methods
	GetCategory(ctx context.Context, tenantID string, categoryID id.CategoryID) (*category.Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]*category.Category, error)

	// Audit methods
	ListAuditLogs(ctx context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Log, error)

	// User methods
	GetUser(ctx context.Context, tenantID string, userID id.UserID) (*user.User, error)
	ListUsers(ctx context.Context, tenantID string, opts user.ListOpts) ([]*user.User, error)

	// Apply commits every write in b for tenantID as one atomic unit.
	Apply(ctx context.Context, tenantID string, b *Batch) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that Store satisfies each per-entity contract.
var (
	_ tenant.Store   = (Store)(nil)
	_ table.Store    = (Store)(nil)
	_ order.Store    = (Store)(nil)
	_ product.Store  = (Store)(nil)
	_ category.Store = (Store)(nil)
	_ audit.Store    = (Store)(nil)
	_ user.Store     = (Store)(nil)
)
