// Package memory is an in-process store.Store. One lock guards every
// tenant partition, so Apply is atomic and readers always see a fully
// committed state. Values are cloned on the way in and out.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// partition holds one tenant's collections keyed by entity id.
type partition struct {
	tables     map[string]*table.Table
	orders     map[string]*order.Order
	products   map[string]*product.Product
	categories map[string]*category.Category
	users      map[string]*user.User
	auditLogs  []*audit.Log
}

func newPartition() *partition {
	return &partition{
		tables:     make(map[string]*table.Table),
		orders:     make(map[string]*order.Order),
		products:   make(map[string]*product.Product),
		categories: make(map[string]*category.Category),
		users:      make(map[string]*user.User),
	}
}

// Store keeps every tenant partition in memory.
type Store struct {
	mu         sync.RWMutex
	tenants    map[string]*tenant.Tenant
	partitions map[string]*partition
	closed     bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tenants:    make(map[string]*tenant.Tenant),
		partitions: make(map[string]*partition),
	}
}

// Migrate is a no-op.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping fails once the store is closed.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Data stays readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// part returns the tenant partition, or nil. Callers hold the lock.
func (s *Store) part(tenantID string) *partition {
	return s.partitions[tenantID]
}

// ==================== Tenant Store ====================

func (s *Store) CreateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; exists {
		return fmt.Errorf("ledger/memory: tenant %s: %w", t.ID, ledger.ErrAlreadyExists)
	}
	cp := *t
	s.tenants[t.ID] = &cp
	s.partitions[t.ID] = newPartition()
	return nil
}

func (s *Store) GetTenant(_ context.Context, tenantID string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: "tenant", ID: tenantID}
	}
	cp := *t
	return &cp, nil
}

// ==================== Table Store ====================

func (s *Store) GetTable(_ context.Context, tenantID string, tableID id.TableID) (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		if t, ok := p.tables[tableID.String()]; ok {
			return t.Clone(), nil
		}
	}
	return nil, ledger.NotFound("table", tableID)
}

func (s *Store) ListTables(_ context.Context, tenantID string, opts table.ListOpts) ([]*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*table.Table
	if p := s.part(tenantID); p != nil {
		for _, t := range p.tables {
			if opts.Match(t) {
				out = append(out, t.Clone())
			}
		}
	}
	table.SortByNumber(out)
	return out, nil
}

// ==================== Order Store ====================

func (s *Store) GetOrder(_ context.Context, tenantID string, orderID id.OrderID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		if o, ok := p.orders[orderID.String()]; ok {
			return o.Clone(), nil
		}
	}
	return nil, ledger.NotFound("order", orderID)
}

func (s *Store) GetOpenOrderForTable(_ context.Context, tenantID string, tableID id.TableID) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		for _, o := range p.orders {
			if o.TableID == tableID && o.IsOpen() {
				return o.Clone(), nil
			}
		}
	}
	return nil, &ledger.NotFoundError{Entity: "open order for table", ID: tableID.String()}
}

func (s *Store) ListOrders(_ context.Context, tenantID string, opts order.ListOpts) ([]*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order
	if p := s.part(tenantID); p != nil {
		for _, o := range p.orders {
			if opts.Match(o) {
				out = append(out, o.Clone())
			}
		}
	}
	slices.SortFunc(out, func(a, b *order.Order) int {
		return cmp.Or(
			b.CreatedAt.Compare(a.CreatedAt),
			strings.Compare(b.ID.String(), a.ID.String()),
		)
	})
	return page(out, opts.Offset, opts.Limit), nil
}

// ==================== Product Store ====================

func (s *Store) GetProduct(_ context.Context, tenantID string, productID id.ProductID) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		if pr, ok := p.products[productID.String()]; ok {
			return pr.Clone(), nil
		}
	}
	return nil, ledger.NotFound("product", productID)
}

func (s *Store) GetProductBySKU(_ context.Context, tenantID, sku string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil && sku != "" {
		for _, pr := range p.products {
			if strings.EqualFold(pr.SKU, sku) {
				return pr.Clone(), nil
			}
		}
	}
	return nil, &ledger.NotFoundError{Entity: "product with sku", ID: sku}
}

func (s *Store) ListProducts(_ context.Context, tenantID string, opts product.ListOpts) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*product.Product
	if p := s.part(tenantID); p != nil {
		for _, pr := range p.products {
			if opts.Match(pr) {
				out = append(out, pr.Clone())
			}
		}
	}
	slices.SortFunc(out, func(a, b *product.Product) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return out, nil
}

// ==================== Category Store ====================

func (s *Store) GetCategory(_ context.Context, tenantID string, categoryID id.CategoryID) (*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		if c, ok := p.categories[categoryID.String()]; ok {
			return c.Clone(), nil
		}
	}
	return nil, ledger.NotFound("category", categoryID)
}

func (s *Store) ListCategories(_ context.Context, tenantID string) ([]*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*category.Category
	if p := s.part(tenantID); p != nil {
		for _, c := range p.categories {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *category.Category) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			strings.Compare(a.Name, b.Name),
		)
	})
	return out, nil
}

// ==================== Audit Store ====================

func (s *Store) ListAuditLogs(_ context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*audit.Log
	if p := s.part(tenantID); p != nil {
		// Appended in commit order; walk backwards for newest first.
		for i := len(p.auditLogs) - 1; i >= 0; i-- {
			l := p.auditLogs[i]
			if !opts.Match(l) {
				continue
			}
			cp := *l
			out = append(out, &cp)
			if opts.Limit > 0 && len(out) == opts.Limit {
				break
			}
		}
	}
	return out, nil
}

// ==================== User Store ====================

func (s *Store) GetUser(_ context.Context, tenantID string, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.part(tenantID); p != nil {
		if u, ok := p.users[userID.String()]; ok {
			return u.Clone(), nil
		}
	}
	return nil, ledger.NotFound("user", userID)
}

func (s *Store) ListUsers(_ context.Context, tenantID string, opts user.ListOpts) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*user.User
	if p := s.part(tenantID); p != nil {
		for _, u := range p.users {
			if opts.Match(u) {
				out = append(out, u.Clone())
			}
		}
	}
	slices.SortFunc(out, func(a, b *user.User) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// ==================== Apply ====================

// Apply validates the whole batch first and only then writes, all under the
// write lock, so readers see either none or all of it.
func (s *Store) Apply(_ context.Context, tenantID string, b *store.Batch) error {
	if err := b.CheckTenant(tenantID); err != nil {
		return fmt.Errorf("ledger/memory: apply: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	p := s.part(tenantID)
	if p == nil {
		return &ledger.NotFoundError{Entity: "tenant", ID: tenantID}
	}

	seen := make(map[string]bool, len(b.AuditLogs))
	for _, l := range p.auditLogs {
		seen[l.ID.String()] = true
	}
	for _, l := range b.AuditLogs {
		if seen[l.ID.String()] {
			return fmt.Errorf("ledger/memory: audit log %s: %w", l.ID, ledger.ErrAlreadyExists)
		}
		seen[l.ID.String()] = true
	}

	for _, t := range b.Tables {
		p.tables[t.ID.String()] = t.Clone()
	}
	for _, o := range b.Orders {
		p.orders[o.ID.String()] = o.Clone()
	}
	for _, pr := range b.Products {
		p.products[pr.ID.String()] = pr.Clone()
	}
	for _, productID := range b.DeletedProducts {
		delete(p.products, productID.String())
	}
	for _, c := range b.Categories {
		p.categories[c.ID.String()] = c.Clone()
	}
	for _, categoryID := range b.DeletedCategories {
		delete(p.categories, categoryID.String())
	}
	for _, u := range b.Users {
		p.users[u.ID.String()] = u.Clone()
	}
	for _, l := range b.AuditLogs {
		cp := *l
		p.auditLogs = append(p.auditLogs, &cp)
	}
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
