package mongo

import (
	"testing"
	"time"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/types"
)

func TestTimeRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	if r := timeRange(time.Time{}, time.Time{}); r != nil {
		t.Errorf("unbounded range = %v, want nil", r)
	}
	r := timeRange(from, to)
	if r["$gte"] != from || r["$lt"] != to {
		t.Errorf("range = %v", r)
	}
	if r := timeRange(from, time.Time{}); len(r) != 1 || r["$gte"] != from {
		t.Errorf("open range = %v", r)
	}
}

func TestProductModelLowercasesLookupKeys(t *testing.T) {
	p := &product.Product{
		ID:       id.NewProductID(),
		TenantID: "resto-1",
		SKU:      "EMP-01",
		Name:     "Empanada Salteña",
		Price:    types.New(45000, "ars"),
	}
	m := toProductModel(p)
	if m.SKULower != "emp-01" || m.NameLower != "empanada salteña" {
		t.Errorf("lookup keys = %q, %q", m.SKULower, m.NameLower)
	}
	if m.CategoryID != "" {
		t.Errorf("CategoryID = %q, want empty for nil id", m.CategoryID)
	}

	back, err := fromProductModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != p.ID || !back.CategoryID.IsNil() || back.Price != p.Price {
		t.Errorf("round trip = %+v", back)
	}
}

func TestMigrationIndexesCoverCollections(t *testing.T) {
	idx := migrationIndexes()
	for _, col := range []string{colTables, colOrders, colProducts, colCategories, colUsers, colAuditLogs} {
		if len(idx[col]) == 0 {
			t.Errorf("no indexes for %s", col)
		}
	}
}
