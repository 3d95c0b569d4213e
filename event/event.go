// Package event defines the closed set of domain events the ledger emits
// after a committed mutation, the wire envelope they travel in, and an
// in-process per-tenant broker.
package event

import (
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/user"
)

// Type is the wire name of an event variant.
type Type string

const (
	TypeTableUpdated    Type = "table.updated"
	TypeOrderUpdated    Type = "order.updated"
	TypeOrderClosed     Type = "order.closed"
	TypeStockAdjusted   Type = "stock.adjusted"
	TypeProductUpdated  Type = "product.updated"
	TypeCategoryUpdated Type = "category.updated"
	TypeUserUpdated     Type = "user.updated"
)

// Event is a domain event variant. The set is closed: only types in this
// package implement it.
type Event interface {
	Type() Type
	sealed()
}

// TableUpdated carries a table after any committed change. OrderID is set
// when the change opened an order on the table.
type TableUpdated struct {
	Table   *table.Table `json:"table"`
	OrderID id.OrderID   `json:"order_id,omitzero"`
}

// StockLevel is a product's stock after a movement.
type StockLevel struct {
	ProductID id.ProductID       `json:"product_id"`
	Quantity  int64              `json:"quantity"`
	State     product.StockState `json:"state"`
}

// OrderUpdated carries an open order after items or statuses changed, plus
// the stock levels the change moved.
type OrderUpdated struct {
	Order *order.Order `json:"order"`
	Stock []StockLevel `json:"stock,omitempty"`
}

// OrderClosed carries a paid order and the table it released.
type OrderClosed struct {
	Order *order.Order `json:"order"`
	Table *table.Table `json:"table"`
}

// StockAdjusted carries one manual stock movement.
type StockAdjusted struct {
	ProductID id.ProductID       `json:"product_id"`
	Before    int64              `json:"before"`
	After     int64              `json:"after"`
	Reason    string             `json:"reason"`
	ActorID   id.UserID          `json:"actor_id,omitzero"`
	AuditID   id.AuditID         `json:"audit_id"`
	State     product.StockState `json:"state"`
}

// Delta is After - Before.
func (e StockAdjusted) Delta() int64 { return e.After - e.Before }

// ProductUpdated carries a product after a catalog change. Removed marks a
// deletion; Product then holds the last state.
type ProductUpdated struct {
	Product *product.Product `json:"product"`
	Removed bool             `json:"removed,omitempty"`
}

// CategoryUpdated carries a category after a catalog change.
type CategoryUpdated struct {
	Category *category.Category `json:"category"`
	Removed  bool               `json:"removed,omitempty"`
}

// UserUpdated carries a staff account after it was added.
type UserUpdated struct {
	User *user.User `json:"user"`
}

func (TableUpdated) Type() Type    { return TypeTableUpdated }
func (OrderUpdated) Type() Type    { return TypeOrderUpdated }
func (OrderClosed) Type() Type     { return TypeOrderClosed }
func (StockAdjusted) Type() Type   { return TypeStockAdjusted }
func (ProductUpdated) Type() Type  { return TypeProductUpdated }
func (CategoryUpdated) Type() Type { return TypeCategoryUpdated }
func (UserUpdated) Type() Type     { return TypeUserUpdated }

func (TableUpdated) sealed()    {}
func (OrderUpdated) sealed()    {}
func (OrderClosed) sealed()     {}
func (StockAdjusted) sealed()   {}
func (ProductUpdated) sealed()  {}
func (CategoryUpdated) sealed() {}
func (UserUpdated) sealed()     {}
