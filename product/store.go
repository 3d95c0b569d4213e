package product

import (
	"context"
	"strings"

	"github.com/gastroflow/ledger/id"
)

// Store reads products. Writes go through the unified store batch.
type Store interface {
	GetProduct(ctx context.Context, tenantID string, productID id.ProductID) (*Product, error)
	GetProductBySKU(ctx context.Context, tenantID, sku string) (*Product, error)
	ListProducts(ctx context.Context, tenantID string, opts ListOpts) ([]*Product, error)
}

// ListOpts filters ListProducts. Results are sorted by name.
type ListOpts struct {
	CategoryID id.CategoryID
	// Search matches name or SKU, case-insensitively.
	Search     string
	StockState []StockState
	ActiveOnly bool
}

// Match reports whether p passes the filter.
func (o ListOpts) Match(p *Product) bool {
	if o.ActiveOnly && !p.IsActive {
		return false
	}
	if !o.CategoryID.IsNil() && p.CategoryID != o.CategoryID {
		return false
	}
	if q := strings.TrimSpace(o.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.SKU), q) {
			return false
		}
	}
	if len(o.StockState) > 0 {
		state := p.StockState()
		found := false
		for _, s := range o.StockState {
			if s == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
