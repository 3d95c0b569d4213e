package category

import (
	"context"

	"github.com/gastroflow/ledger/id"
)

// Store reads categories, ordered by display rank.
type Store interface {
	GetCategory(ctx context.Context, tenantID string, categoryID id.CategoryID) (*Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]*Category, error)
}
