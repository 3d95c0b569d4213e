// Package category groups products for menu display.
package category

import (
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/types"
)

// Category is a menu section. Order is its display rank (1-based).
type Category struct {
	types.Entity
	ID       id.CategoryID `json:"id"`
	TenantID string        `json:"tenant_id"`
	Name     string        `json:"name"`
	Order    int           `json:"order"`
}

// Clone returns an independent copy.
func (c *Category) Clone() *Category {
	cp := *c
	return &cp
}

// CreateRequest holds the fields accepted when a category is added. A nil
// Order appends the category after the existing ones.
type CreateRequest struct {
	Name  string `json:"name"  validate:"required,max=80"`
	Order *int   `json:"order" validate:"omitempty,gte=1"`
}

// UpdateRequest enumerates the mutable category fields.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=1,max=80"`
	Order *int    `json:"order,omitempty" validate:"omitempty,gte=1"`
}
