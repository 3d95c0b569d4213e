// Package product models menu products and their tracked stock.
package product

import (
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/types"
)

// DefaultStockMin is the low-stock threshold applied when none is given.
const DefaultStockMin int64 = 5

// StockState classifies a product's stock level.
type StockState string

const (
	StockUntracked StockState = "untracked"
	StockOK        StockState = "ok"
	StockLow       StockState = "low"
	StockOut       StockState = "out"
)

// Product is a sellable menu entry. StockQuantity only changes through the
// stock ledger.
type Product struct {
	types.Entity
	ID            id.ProductID  `json:"id"`
	TenantID      string        `json:"tenant_id"`
	SKU           string        `json:"sku,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	CategoryID    id.CategoryID `json:"category_id,omitzero"`
	Price         types.Money   `json:"price"`
	StockEnabled  bool          `json:"stock_enabled"`
	StockQuantity int64         `json:"stock_quantity"`
	StockMin      int64         `json:"stock_min"`
	IsActive      bool          `json:"is_active"`
}

// Clone returns an independent copy.
func (p *Product) Clone() *Product {
	c := *p
	return &c
}

// StockState derives the stock classification. Products without stock
// tracking are never low or out.
func (p *Product) StockState() StockState {
	switch {
	case !p.StockEnabled:
		return StockUntracked
	case p.StockQuantity <= 0:
		return StockOut
	case p.StockQuantity <= p.StockMin:
		return StockLow
	default:
		return StockOK
	}
}

// Bounds on stock and price, in units and minor units. They keep line
// subtotals and order totals far from the int64 limit.
const (
	MaxStock = 1_000_000_000
	MaxPrice = 100_000_000_000
)

// CreateRequest holds the fields accepted when a product is added. Price is
// in the tenant currency's minor unit.
type CreateRequest struct {
	SKU           string        `json:"sku"            validate:"max=32"`
	Name          string        `json:"name"           validate:"required,max=120"`
	Description   string        `json:"description"    validate:"max=500"`
	CategoryID    id.CategoryID `json:"category_id"`
	Price         int64         `json:"price"          validate:"gte=0,max=100000000000"`
	StockEnabled  bool          `json:"stock_enabled"`
	StockQuantity int64         `json:"stock_quantity" validate:"gte=0,max=1000000000"`
	StockMin      *int64        `json:"stock_min"      validate:"omitempty,gte=0,max=1000000000"`
	IsActive      *bool         `json:"is_active"`
}

// UpdateRequest enumerates the mutable product fields. Stock quantity is
// deliberately absent: it moves only through stock adjustments.
type UpdateRequest struct {
	SKU          *string        `json:"sku,omitempty"           validate:"omitempty,max=32"`
	Name         *string        `json:"name,omitempty"          validate:"omitempty,min=1,max=120"`
	Description  *string        `json:"description,omitempty"   validate:"omitempty,max=500"`
	CategoryID   *id.CategoryID `json:"category_id,omitempty"`
	Price        *int64         `json:"price,omitempty"         validate:"omitempty,gte=0,max=100000000000"`
	StockEnabled *bool          `json:"stock_enabled,omitempty"`
	StockMin     *int64         `json:"stock_min,omitempty"     validate:"omitempty,gte=0,max=1000000000"`
	IsActive     *bool          `json:"is_active,omitempty"`
}
