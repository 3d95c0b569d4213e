package store

import (
	"fmt"

	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/user"
)

// Batch is the write set of one ledger operation. Entities are upserted by
// id; audit entries are appended and never overwrite.
type Batch struct {
	Tables            []*table.Table
	Orders            []*order.Order
	Products          []*product.Product
	DeletedProducts   []id.ProductID
	Categories        []*category.Category
	DeletedCategories []id.CategoryID
	Users             []*user.User
	AuditLogs         []*audit.Log
}

func (b *Batch) PutTable(t *table.Table)          { b.Tables = append(b.Tables, t) }
func (b *Batch) PutOrder(o *order.Order)          { b.Orders = append(b.Orders, o) }
func (b *Batch) PutCategory(c *category.Category) { b.Categories = append(b.Categories, c) }
func (b *Batch) PutUser(u *user.User)             { b.Users = append(b.Users, u) }
func (b *Batch) AppendAudit(l *audit.Log)         { b.AuditLogs = append(b.AuditLogs, l) }
func (b *Batch) DeleteProduct(productID id.ID) {
	b.DeletedProducts = append(b.DeletedProducts, productID)
}
func (b *Batch) DeleteCategory(categoryID id.ID) {
	b.DeletedCategories = append(b.DeletedCategories, categoryID)
}

// PutProduct stages p, replacing an earlier staged copy of the same product
// so a batch never carries two versions of one row.
func (b *Batch) PutProduct(p *product.Product) {
	for i, existing := range b.Products {
		if existing.ID == p.ID {
			b.Products[i] = p
			return
		}
	}
	b.Products = append(b.Products, p)
}

// Empty reports whether the batch writes nothing.
func (b *Batch) Empty() bool {
	return len(b.Tables) == 0 && len(b.Orders) == 0 && len(b.Products) == 0 &&
		len(b.DeletedProducts) == 0 && len(b.Categories) == 0 &&
		len(b.DeletedCategories) == 0 && len(b.Users) == 0 && len(b.AuditLogs) == 0
}

// CheckTenant verifies every staged entity belongs to tenantID. Backends call
// it before writing.
func (b *Batch) CheckTenant(tenantID string) error {
	check := func(kind string, owner string) error {
		if owner != tenantID {
			return fmt.Errorf("store: %s of tenant %q staged for tenant %q", kind, owner, tenantID)
		}
		return nil
	}
	for _, t := range b.Tables {
		if err := check("table", t.TenantID); err != nil {
			return err
		}
	}
	for _, o := range b.Orders {
		if err := check("order", o.TenantID); err != nil {
			return err
		}
	}
	for _, p := range b.Products {
		if err := check("product", p.TenantID); err != nil {
			return err
		}
	}
	for _, c := range b.Categories {
		if err := check("category", c.TenantID); err != nil {
			return err
		}
	}
	for _, u := range b.Users {
		if err := check("user", u.TenantID); err != nil {
			return err
		}
	}
	for _, l := range b.AuditLogs {
		if err := check("audit log", l.TenantID); err != nil {
			return err
		}
	}
	return nil
}
