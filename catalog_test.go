package ledger_test

import (
	"errors"
	"testing"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/category"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

func TestInsertProduct(t *testing.T) {
	f := newFixture(t)
	rec := f.record()

	minimum := int64(2)
	p, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{
		SKU:           " BEB-001 ",
		Name:          "Quilmes 1L",
		Price:         2500,
		StockEnabled:  true,
		StockQuantity: 12,
		StockMin:      &minimum,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.SKU != "BEB-001" || p.Price.Currency != "ars" || p.StockMin != 2 || !p.IsActive {
		t.Errorf("product = %+v", p)
	}

	logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: p.ID})
	if len(logs) != 1 || logs[0].Before.Stock != 0 || logs[0].After.Stock != 12 || logs[0].Reason != audit.ReasonInitial {
		t.Errorf("initial journal = %+v", logs)
	}

	envs := rec.drain()
	if len(envs) != 1 || envs[0].Type != event.TypeProductUpdated {
		t.Fatalf("events = %v", typesOf(envs))
	}

	plain := f.product("Pan", 0, -1)
	if plain.StockMin != product.DefaultStockMin {
		t.Errorf("default stock min = %d", plain.StockMin)
	}
}

func TestInsertProductRejections(t *testing.T) {
	f := newFixture(t)
	if _, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{SKU: "POS-01", Name: "Flan", Price: 900}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  product.CreateRequest
		kind error
	}{
		{"missing name", product.CreateRequest{Price: 100}, ledger.ErrValidation},
		{"negative price", product.CreateRequest{Name: "X", Price: -1}, ledger.ErrValidation},
		{"stock without tracking", product.CreateRequest{Name: "X", StockQuantity: 3}, ledger.ErrValidation},
		{"sku clash", product.CreateRequest{SKU: "pos-01", Name: "Budín"}, ledger.ErrConflict},
		{"unknown category", product.CreateRequest{Name: "X", CategoryID: id.NewCategoryID()}, ledger.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.l.InsertProduct(f.ctx, tenantID, tt.req)
			wantErr(t, err, tt.kind)
		})
	}
}

func TestUpdateProductKeepsStock(t *testing.T) {
	f := newFixture(t)
	p := f.product("Fernet con coca", 4000, 30)
	other, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{SKU: "TRG-1", Name: "Trago", Price: 1})
	if err != nil {
		t.Fatal(err)
	}

	off := false
	got, err := f.l.UpdateProduct(f.ctx, tenantID, p.ID, product.UpdateRequest{StockEnabled: &off})
	if err != nil {
		t.Fatal(err)
	}
	if got.StockQuantity != 30 || got.StockState() != product.StockUntracked {
		t.Errorf("product = %+v", got)
	}

	sku := "trg-1"
	_, err = f.l.UpdateProduct(f.ctx, tenantID, p.ID, product.UpdateRequest{SKU: &sku})
	wantErr(t, err, ledger.ErrConflict)

	// Changing only the case of its own SKU is allowed.
	own := "Trg-1"
	if _, err := f.l.UpdateProduct(f.ctx, tenantID, other.ID, product.UpdateRequest{SKU: &own}); err != nil {
		t.Errorf("own sku: %v", err)
	}
}

func TestRemoveProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product("Choripán", 2800, -1)
	ord := f.seated("1")
	f.add(ord.ID, line(p, 1))

	wantErr(t, f.l.RemoveProduct(f.ctx, tenantID, p.ID), ledger.ErrValidation)

	if _, err := f.l.CloseOrder(f.ctx, tenantID, ord.ID, f.waiter.ID, order.PaymentCash); err != nil {
		t.Fatal(err)
	}
	rec := f.record()
	if err := f.l.RemoveProduct(f.ctx, tenantID, p.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.l.GetProduct(f.ctx, tenantID, p.ID)
	wantErr(t, err, ledger.ErrNotFound)

	envs := rec.drain()
	if len(envs) != 1 {
		t.Fatalf("events = %v", typesOf(envs))
	}
	if pu := envs[0].Payload.(event.ProductUpdated); !pu.Removed || pu.Product.ID != p.ID {
		t.Errorf("payload = %+v", pu)
	}

	// Paid orders keep their snapshot.
	paid, _ := f.l.GetOrder(f.ctx, tenantID, ord.ID)
	if paid.Items[0].Name != "Choripán" {
		t.Errorf("paid order item = %+v", paid.Items[0])
	}
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	entradas, err := f.l.InsertCategory(f.ctx, tenantID, category.CreateRequest{Name: "Entradas"})
	if err != nil {
		t.Fatal(err)
	}
	principales, err := f.l.InsertCategory(f.ctx, tenantID, category.CreateRequest{Name: "Principales"})
	if err != nil {
		t.Fatal(err)
	}
	if entradas.Order != 1 || principales.Order != 2 {
		t.Errorf("ranks = %d, %d", entradas.Order, principales.Order)
	}

	first := 1
	zero := 0
	if _, err := f.l.UpdateCategory(f.ctx, tenantID, principales.ID, category.UpdateRequest{Order: &zero}); !errors.Is(err, ledger.ErrValidation) {
		t.Errorf("rank 0: err = %v", err)
	}
	if _, err := f.l.UpdateCategory(f.ctx, tenantID, principales.ID, category.UpdateRequest{Order: &first}); err != nil {
		t.Fatal(err)
	}
	second := 2
	if _, err := f.l.UpdateCategory(f.ctx, tenantID, entradas.ID, category.UpdateRequest{Order: &second}); err != nil {
		t.Fatal(err)
	}

	list, _ := f.l.ListCategories(f.ctx, tenantID)
	if len(list) != 2 || list[0].ID != principales.ID {
		t.Errorf("categories not sorted by rank: %+v", list)
	}

	p, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{Name: "Provoleta", Price: 3000, CategoryID: entradas.ID})
	if err != nil {
		t.Fatal(err)
	}
	wantErr(t, f.l.RemoveCategory(f.ctx, tenantID, entradas.ID), ledger.ErrValidation)

	if err := f.l.RemoveProduct(f.ctx, tenantID, p.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.l.RemoveCategory(f.ctx, tenantID, entradas.ID); err != nil {
		t.Fatal(err)
	}
	_, err = f.l.GetCategory(f.ctx, tenantID, entradas.ID)
	wantErr(t, err, ledger.ErrNotFound)
}

func TestUserPlanLimit(t *testing.T) {
	f := newFixtureOnPlan(t, tenant.PlanBasic)

	_, err := f.l.InsertUser(f.ctx, tenantID, user.CreateRequest{Name: "Beto", Email: "beto@laesquina.test", Role: user.RoleKitchen})
	wantErr(t, err, ledger.ErrPlanLimitReached)

	_, err = f.l.InsertUser(f.ctx, tenantID, user.CreateRequest{Name: "Ana bis", Email: "ANA@laesquina.test", Role: user.RoleWaiter})
	wantErr(t, err, ledger.ErrConflict)

	_, err = f.l.InsertUser(f.ctx, tenantID, user.CreateRequest{Name: "Sin mail", Role: user.RoleWaiter})
	wantErr(t, err, ledger.ErrValidation)
}

func TestProductPlanLimit(t *testing.T) {
	f := newFixtureOnPlan(t, tenant.PlanBasic)
	limit := tenant.Plans[tenant.PlanBasic].Limits.Products
	for i := range limit {
		if _, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{Name: "Item", Price: int64(i)}); err != nil {
			t.Fatalf("product %d: %v", i, err)
		}
	}

	_, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{Name: "One more", Price: 1})
	if !errors.Is(err, ledger.ErrPlanLimitReached) || !ledger.IsValidation(err) {
		t.Errorf("err = %v", err)
	}
}
