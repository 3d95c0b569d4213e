package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/store/memory"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/types"
)

func newStore(t *testing.T, tenants ...string) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, tid := range tenants {
		if err := s.CreateTenant(context.Background(), &tenant.Tenant{ID: tid, Plan: tenant.PlanPro}); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestCreateTenantTwice(t *testing.T) {
	s := newStore(t, "t1")
	err := s.CreateTenant(context.Background(), &tenant.Tenant{ID: "t1"})
	if !errors.Is(err, ledger.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1", "t2")

	tbl := &table.Table{ID: id.NewTableID(), TenantID: "t1", Number: "5", Status: table.StatusAvailable, IsActive: true}
	if err := s.Apply(ctx, "t1", &store.Batch{Tables: []*table.Table{tbl}}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetTable(ctx, "t1", tbl.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	_, err := s.GetTable(ctx, "t2", tbl.ID)
	if !ledger.IsNotFound(err) {
		t.Fatalf("cross-tenant lookup err = %v, want not found", err)
	}
	list, _ := s.ListTables(ctx, "t2", table.ListOpts{})
	if len(list) != 0 {
		t.Errorf("t2 sees %d tables", len(list))
	}
}

func TestApplyRejectsForeignEntities(t *testing.T) {
	s := newStore(t, "t1", "t2")
	tbl := &table.Table{ID: id.NewTableID(), TenantID: "t2"}
	if err := s.Apply(context.Background(), "t1", &store.Batch{Tables: []*table.Table{tbl}}); err == nil {
		t.Fatal("expected tenant mismatch error")
	}
}

func TestApplyUnknownTenant(t *testing.T) {
	s := newStore(t)
	err := s.Apply(context.Background(), "ghost", &store.Batch{})
	if !ledger.IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1")

	o := order.New("t1", id.NewTableID(), "ars", time.Now())
	o.Items = []order.Item{{ProductID: id.NewProductID(), Quantity: 1, Price: types.ARS(100), Status: order.ItemPending}}
	if err := s.Apply(ctx, "t1", &store.Batch{Orders: []*order.Order{o}}); err != nil {
		t.Fatal(err)
	}

	o.Items[0].Status = order.ItemDelivered

	got, err := s.GetOrder(ctx, "t1", o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].Status != order.ItemPending {
		t.Error("store shares memory with the caller's batch")
	}
	got.Items[0].Quantity = 99

	again, _ := s.GetOrder(ctx, "t1", o.ID)
	if again.Items[0].Quantity != 1 {
		t.Error("store shares memory with readers")
	}
}

func TestOpenOrderForTable(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1")
	tableID := id.NewTableID()

	paid := order.New("t1", tableID, "ars", time.Now())
	paid.Status = order.StatusPaid
	open := order.New("t1", tableID, "ars", time.Now())
	if err := s.Apply(ctx, "t1", &store.Batch{Orders: []*order.Order{paid, open}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetOpenOrderForTable(ctx, "t1", tableID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != open.ID {
		t.Errorf("got %s, want open order %s", got.ID, open.ID)
	}

	if _, err := s.GetOpenOrderForTable(ctx, "t1", id.NewTableID()); !ledger.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestAuditLogsNewestFirstAndAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1")
	productID := id.NewProductID()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var first *audit.Log
	for i := range 3 {
		l := &audit.Log{
			ID:        id.NewAuditID(),
			TenantID:  "t1",
			Action:    audit.ActionStockAdjust,
			EntityID:  productID,
			Before:    audit.Snapshot{Stock: int64(i)},
			After:     audit.Snapshot{Stock: int64(i + 1)},
			Reason:    "Compra de mercadería",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if first == nil {
			first = l
		}
		if err := s.Apply(ctx, "t1", &store.Batch{AuditLogs: []*audit.Log{l}}); err != nil {
			t.Fatal(err)
		}
	}

	logs, _ := s.ListAuditLogs(ctx, "t1", audit.ListOpts{})
	if len(logs) != 3 {
		t.Fatalf("got %d logs", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.After(logs[i-1].Timestamp) {
			t.Error("logs not newest first")
		}
	}

	limited, _ := s.ListAuditLogs(ctx, "t1", audit.ListOpts{Limit: 2})
	if len(limited) != 2 || limited[0].After.Stock != 3 {
		t.Errorf("limited = %+v", limited)
	}

	err := s.Apply(ctx, "t1", &store.Batch{AuditLogs: []*audit.Log{first}})
	if !errors.Is(err, ledger.ErrAlreadyExists) {
		t.Errorf("re-append err = %v", err)
	}
}

func TestFailedApplyWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1")
	dup := &audit.Log{ID: id.NewAuditID(), TenantID: "t1", Timestamp: time.Now()}
	if err := s.Apply(ctx, "t1", &store.Batch{AuditLogs: []*audit.Log{dup}}); err != nil {
		t.Fatal(err)
	}

	p := &product.Product{ID: id.NewProductID(), TenantID: "t1", Name: "Flan", IsActive: true}
	err := s.Apply(ctx, "t1", &store.Batch{
		Products:  []*product.Product{p},
		AuditLogs: []*audit.Log{dup},
	})
	if err == nil {
		t.Fatal("expected duplicate audit error")
	}
	if _, err := s.GetProduct(ctx, "t1", p.ID); !ledger.IsNotFound(err) {
		t.Error("product written by a failed batch")
	}
}

func TestListOrdersPaging(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, "t1")
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	b := &store.Batch{}
	for i := range 5 {
		b.PutOrder(order.New("t1", id.NewTableID(), "ars", base.Add(time.Duration(i)*time.Hour)))
	}
	if err := s.Apply(ctx, "t1", b); err != nil {
		t.Fatal(err)
	}

	got, _ := s.ListOrders(ctx, "t1", order.ListOpts{Offset: 1, Limit: 2})
	if len(got) != 2 {
		t.Fatalf("got %d orders", len(got))
	}
	if !got[0].CreatedAt.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("first = %v, want newest-but-one", got[0].CreatedAt)
	}

	none, _ := s.ListOrders(ctx, "t1", order.ListOpts{Offset: 10})
	if len(none) != 0 {
		t.Errorf("offset past end returned %d", len(none))
	}
}

func TestClose(t *testing.T) {
	s := newStore(t, "t1")
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Ping after Close = %v", err)
	}
	if err := s.Apply(context.Background(), "t1", &store.Batch{}); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Apply after Close = %v", err)
	}
}
