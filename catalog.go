package ledger

import (
	"context"
	"strings"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/types"
	"github.com/gastroflow/ledger/user"
)

// ──────────────────────────────────────────────────
// Products
// ──────────────────────────────────────────────────

// InsertProduct adds a product priced in the tenant currency. Initial stock
// of a tracked product is journaled like any other movement.
func (l *Ledger) InsertProduct(ctx context.Context, tenantID string, req product.CreateRequest) (*product.Product, error) {
	var out *product.Product
	err := l.mutate(ctx, tenantID, "insert_product", func(ctx context.Context, m *mutation) error {
		req.Name = strings.TrimSpace(req.Name)
		req.SKU = strings.TrimSpace(req.SKU)
		if err := l.check(req); err != nil {
			return err
		}
		if !req.StockEnabled && req.StockQuantity != 0 {
			return invalid("stock_quantity", "requires stock_enabled")
		}

		existing, err := l.store.ListProducts(ctx, tenantID, product.ListOpts{})
		if err != nil {
			return err
		}
		if limit := m.tenant.Limits().Products; len(existing) >= limit {
			return planLimit("products", limit)
		}
		if err := l.uniqueSKU(ctx, tenantID, req.SKU, id.Nil); err != nil {
			return err
		}
		if err := l.categoryExists(ctx, tenantID, req.CategoryID); err != nil {
			return err
		}

		p := &product.Product{
			Entity:       types.NewEntity(m.at),
			ID:           id.NewProductID(),
			TenantID:     tenantID,
			SKU:          req.SKU,
			Name:         req.Name,
			Description:  strings.TrimSpace(req.Description),
			CategoryID:   req.CategoryID,
			Price:        types.New(req.Price, m.tenant.CurrencyCode()),
			StockEnabled: req.StockEnabled,
			StockMin:     product.DefaultStockMin,
			IsActive:     true,
		}
		if req.StockMin != nil {
			p.StockMin = *req.StockMin
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}

		m.products[p.ID] = p
		m.batch.PutProduct(p)
		if p.StockEnabled && req.StockQuantity > 0 {
			if _, err := m.move(p, req.StockQuantity, audit.ReasonInitial, id.Nil); err != nil {
				return err
			}
		}

		out = p
		m.event = event.ProductUpdated{Product: p.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// UpdateProduct edits catalog fields. Stock quantity is not editable here;
// use AdjustStock.
func (l *Ledger) UpdateProduct(ctx context.Context, tenantID string, productID id.ProductID, req product.UpdateRequest) (*product.Product, error) {
	var out *product.Product
	err := l.mutate(ctx, tenantID, "update_product", func(ctx context.Context, m *mutation) error {
		if err := l.check(req); err != nil {
			return err
		}
		p, err := l.product(ctx, m, productID)
		if err != nil {
			return err
		}

		if req.SKU != nil {
			sku := strings.TrimSpace(*req.SKU)
			if !strings.EqualFold(sku, p.SKU) {
				if err := l.uniqueSKU(ctx, tenantID, sku, p.ID); err != nil {
					return err
				}
			}
			p.SKU = sku
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("name", "is required")
			}
			p.Name = name
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		if req.CategoryID != nil {
			if err := l.categoryExists(ctx, tenantID, *req.CategoryID); err != nil {
				return err
			}
			p.CategoryID = *req.CategoryID
		}
		if req.Price != nil {
			p.Price = types.New(*req.Price, p.Price.Currency)
		}
		if req.StockEnabled != nil {
			p.StockEnabled = *req.StockEnabled
		}
		if req.StockMin != nil {
			p.StockMin = *req.StockMin
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}

		p.Touch(m.at)
		m.batch.PutProduct(p)
		out = p
		m.event = event.ProductUpdated{Product: p.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// RemoveProduct deletes a product. Products on an OPEN order cannot be
// removed; paid orders keep their own name and price snapshot.
func (l *Ledger) RemoveProduct(ctx context.Context, tenantID string, productID id.ProductID) error {
	return l.mutate(ctx, tenantID, "remove_product", func(ctx context.Context, m *mutation) error {
		p, err := l.product(ctx, m, productID)
		if err != nil {
			return err
		}

		open, err := l.store.ListOrders(ctx, tenantID, order.ListOpts{Status: order.StatusOpen})
		if err != nil {
			return err
		}
		for _, o := range open {
			if o.HasProduct(p.ID) {
				return invalid("product_id", "product %s is on open order %s", p.Name, o.ID)
			}
		}

		m.batch.DeleteProduct(p.ID)
		m.event = event.ProductUpdated{Product: p.Clone(), Removed: true}
		return nil
	})
}

func (l *Ledger) uniqueSKU(ctx context.Context, tenantID, sku string, self id.ProductID) error {
	if sku == "" {
		return nil
	}
	existing, err := l.store.GetProductBySKU(ctx, tenantID, sku)
	switch {
	case IsNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	}
	return &ConflictError{Entity: "product", ID: existing.ID.String(), Message: "sku " + sku + " is already in use"}
}

func (l *Ledger) categoryExists(ctx context.Context, tenantID string, categoryID id.CategoryID) error {
	if categoryID.IsNil() {
		return nil
	}
	_, err := l.store.GetCategory(ctx, tenantID, categoryID)
	return err
}

// ──────────────────────────────────────────────────
// Categories
// ──────────────────────────────────────────────────

// InsertCategory adds a category. Without an explicit rank it is placed
// after the existing ones.
func (l *Ledger) InsertCategory(ctx context.Context, tenantID string, req category.CreateRequest) (*category.Category, error) {
	var out *category.Category
	err := l.mutate(ctx, tenantID, "insert_category", func(ctx context.Context, m *mutation) error {
		req.Name = strings.TrimSpace(req.Name)
		if err := l.check(req); err != nil {
			return err
		}

		c := &category.Category{
			Entity:   types.NewEntity(m.at),
			ID:       id.NewCategoryID(),
			TenantID: tenantID,
			Name:     req.Name,
		}
		if req.Order != nil {
			c.Order = *req.Order
		} else {
			existing, err := l.store.ListCategories(ctx, tenantID)
			if err != nil {
				return err
			}
			c.Order = len(existing) + 1
		}

		m.batch.PutCategory(c)
		out = c
		m.event = event.CategoryUpdated{Category: c.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// UpdateCategory renames or re-ranks a category.
func (l *Ledger) UpdateCategory(ctx context.Context, tenantID string, categoryID id.CategoryID, req category.UpdateRequest) (*category.Category, error) {
	var out *category.Category
	err := l.mutate(ctx, tenantID, "update_category", func(ctx context.Context, m *mutation) error {
		if err := l.check(req); err != nil {
			return err
		}
		c, err := l.store.GetCategory(ctx, tenantID, categoryID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("name", "is required")
			}
			c.Name = name
		}
		if req.Order != nil {
			c.Order = *req.Order
		}

		c.Touch(m.at)
		m.batch.PutCategory(c)
		out = c
		m.event = event.CategoryUpdated{Category: c.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// RemoveCategory deletes a category no product belongs to.
func (l *Ledger) RemoveCategory(ctx context.Context, tenantID string, categoryID id.CategoryID) error {
	return l.mutate(ctx, tenantID, "remove_category", func(ctx context.Context, m *mutation) error {
		c, err := l.store.GetCategory(ctx, tenantID, categoryID)
		if err != nil {
			return err
		}
		products, err := l.store.ListProducts(ctx, tenantID, product.ListOpts{CategoryID: c.ID})
		if err != nil {
			return err
		}
		if n := len(products); n > 0 {
			return invalid("category_id", "category %s still has %d products", c.Name, n)
		}

		m.batch.DeleteCategory(c.ID)
		m.event = event.CategoryUpdated{Category: c, Removed: true}
		return nil
	})
}

// ──────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────

// InsertUser adds a staff account within the plan's user limit.
func (l *Ledger) InsertUser(ctx context.Context, tenantID string, req user.CreateRequest) (*user.User, error) {
	var out *user.User
	err := l.mutate(ctx, tenantID, "insert_user", func(ctx context.Context, m *mutation) error {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := l.check(req); err != nil {
			return err
		}

		existing, err := l.store.ListUsers(ctx, tenantID, user.ListOpts{})
		if err != nil {
			return err
		}
		active := 0
		for _, u := range existing {
			if strings.EqualFold(u.Email, req.Email) {
				return &ConflictError{Entity: "user", ID: u.ID.String(), Message: "email " + req.Email + " is already registered"}
			}
			if u.IsActive {
				active++
			}
		}
		if limit := m.tenant.Limits().Users; active >= limit {
			return planLimit("users", limit)
		}

		u := &user.User{
			Entity:      types.NewEntity(m.at),
			ID:          id.NewUserID(),
			TenantID:    tenantID,
			Name:        req.Name,
			Email:       req.Email,
			Role:        req.Role,
			Permissions: req.Permissions,
			IsActive:    true,
		}
		if u.Permissions == nil {
			u.Permissions = []string{}
		}
		m.batch.PutUser(u)
		out = u
		m.event = event.UserUpdated{User: u.Clone()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}
