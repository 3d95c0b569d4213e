package ledger_test

import (
	"math"
	"testing"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/types"
)

// seated opens a fresh table and returns its order.
func (f *fixture) seated(number string) *order.Order {
	f.t.Helper()
	tbl := f.table(number)
	ord, err := f.l.OpenTable(f.ctx, tenantID, tbl.ID)
	if err != nil {
		f.t.Fatal(err)
	}
	return ord
}

func (f *fixture) add(orderID id.OrderID, items ...order.ItemInput) *order.Order {
	f.t.Helper()
	ord, err := f.l.AddItems(f.ctx, tenantID, orderID, items)
	if err != nil {
		f.t.Fatal(err)
	}
	return ord
}

func line(p *product.Product, qty int64) order.ItemInput {
	return order.ItemInput{ProductID: p.ID, Quantity: qty}
}

func TestAddItemsAggregatesRepeatedProducts(t *testing.T) {
	f := newFixture(t)
	ord := f.seated("3")
	empanada := f.product("Empanada de carne", 450, 5)
	agua := f.product("Agua", 250, -1)

	// 3 + 3 exceeds 5 even though each line alone fits.
	_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, []order.ItemInput{line(empanada, 3), line(agua, 1), line(empanada, 3)})
	wantErr(t, err, ledger.ErrInsufficientStock)
	if got := f.stockOf(empanada.ID); got != 5 {
		t.Fatalf("stock = %d after rejected call", got)
	}
	current, _ := f.l.GetOrder(f.ctx, tenantID, ord.ID)
	if len(current.Items) != 0 {
		t.Fatalf("rejected call left %d items", len(current.Items))
	}

	ord = f.add(ord.ID, line(empanada, 2), line(agua, 4), line(empanada, 3))
	if len(ord.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(ord.Items))
	}
	for i, want := range []string{"Empanada de carne", "Agua", "Empanada de carne"} {
		if ord.Items[i].Name != want {
			t.Errorf("item %d = %s, want %s (insertion order)", i, ord.Items[i].Name, want)
		}
	}
	if !ord.Total.Equal(types.ARS(5*450 + 4*250)) {
		t.Errorf("total = %v", ord.Total)
	}
	if got := f.stockOf(empanada.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}

	logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: empanada.ID})
	if len(logs) != 2 {
		t.Fatalf("journal has %d entries, want initial + sale", len(logs))
	}
	sale := logs[0]
	if sale.Reason != audit.ReasonSale || sale.Delta() != -5 || sale.ReferenceID != ord.ID {
		t.Errorf("sale entry = %+v", sale)
	}
}

func TestAddItemsRejections(t *testing.T) {
	f := newFixture(t)
	ord := f.seated("4")
	p := f.product("Tira de asado", 5200, -1)
	inactive := false
	retired, err := f.l.InsertProduct(f.ctx, tenantID, product.CreateRequest{Name: "Locro", Price: 3000, IsActive: &inactive})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		items []order.ItemInput
		kind  error
	}{
		{"empty list", nil, ledger.ErrValidation},
		{"zero quantity", []order.ItemInput{line(p, 0)}, ledger.ErrValidation},
		{"negative quantity", []order.ItemInput{line(p, -2)}, ledger.ErrValidation},
		{"quantity above limit", []order.ItemInput{line(p, order.MaxQuantity+1)}, ledger.ErrValidation},
		{"inactive product", []order.ItemInput{line(retired, 1)}, ledger.ErrValidation},
		{"unknown product", []order.ItemInput{{ProductID: id.NewProductID(), Quantity: 1}}, ledger.ErrNotFound},
		{"missing product id", []order.ItemInput{{Quantity: 1}}, ledger.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, tt.items)
			wantErr(t, err, tt.kind)
		})
	}
}

func TestAddItemsRejectsOverflowingQuantities(t *testing.T) {
	f := newFixture(t)
	ord := f.seated("5")
	tracked := f.product("Provoleta", 1000, 10)
	untracked := f.product("Vino de la casa", 1000, -1)

	tests := []struct {
		name  string
		items []order.ItemInput
	}{
		{"repeated tracked lines", []order.ItemInput{line(tracked, math.MaxInt64), line(tracked, math.MaxInt64)}},
		{"untracked line", []order.ItemInput{line(untracked, math.MaxInt64/100)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, tt.items)
			wantErr(t, err, ledger.ErrValidation)
		})
	}

	if got := f.stockOf(tracked.ID); got != 10 {
		t.Errorf("stock = %d, want unchanged 10", got)
	}
	current, err := f.l.GetOrder(f.ctx, tenantID, ord.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(current.Items) != 0 || !current.Total.IsZero() {
		t.Errorf("order = %d items, total %v", len(current.Items), current.Total)
	}
	logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: tracked.ID})
	if len(logs) != 1 || logs[0].Reason != audit.ReasonInitial {
		t.Errorf("journal = %+v, want only the initial entry", logs)
	}

	ord = f.add(ord.ID, line(untracked, order.MaxQuantity))
	if !ord.Total.Equal(types.ARS(order.MaxQuantity * 1000)) {
		t.Errorf("total = %v", ord.Total)
	}
}

func TestItemSnapshotsSurviveProductEdits(t *testing.T) {
	f := newFixture(t)
	ord := f.seated("9")
	p := f.product("Bife de chorizo", 8000, -1)
	f.add(ord.ID, line(p, 1))

	newName, newPrice := "Bife de chorizo 400g", int64(9500)
	if _, err := f.l.UpdateProduct(f.ctx, tenantID, p.ID, product.UpdateRequest{Name: &newName, Price: &newPrice}); err != nil {
		t.Fatal(err)
	}

	ord, _ = f.l.GetOrder(f.ctx, tenantID, ord.ID)
	if it := ord.Items[0]; it.Name != "Bife de chorizo" || it.Price.Amount != 8000 {
		t.Errorf("snapshot rewritten: %+v", it)
	}
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	pizza := f.product("Muzzarella", 6000, 10)

	t.Run("PendingRestoresStock", func(t *testing.T) {
		ord := f.seated("10")
		f.add(ord.ID, line(pizza, 2))
		before := f.stockOf(pizza.ID)

		ord, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(ord.Items) != 0 || !ord.Total.IsZero() {
			t.Errorf("order after removal = %+v", ord)
		}
		if got := f.stockOf(pizza.ID); got != before+2 {
			t.Errorf("stock = %d, want %d", got, before+2)
		}

		logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: pizza.ID, Limit: 1})
		if logs[0].Reason != audit.ReasonCancel || logs[0].Delta() != 2 {
			t.Errorf("cancel entry = %+v", logs[0])
		}
	})

	t.Run("KitchenItemNeedsForce", func(t *testing.T) {
		ord := f.seated("11")
		f.add(ord.ID, line(pizza, 1))
		if _, err := f.l.SendToKitchen(f.ctx, tenantID, ord.ID); err != nil {
			t.Fatal(err)
		}
		before := f.stockOf(pizza.ID)

		_, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, false)
		wantErr(t, err, ledger.ErrValidation)
		if got := f.stockOf(pizza.ID); got != before {
			t.Fatalf("stock moved by rejected removal")
		}

		ord, err = f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(ord.Items) != 0 {
			t.Errorf("forced removal left %d items", len(ord.Items))
		}
		if got := f.stockOf(pizza.ID); got != before+1 {
			t.Errorf("stock = %d, want %d", got, before+1)
		}
	})

	t.Run("PendingPreferredOverKitchen", func(t *testing.T) {
		ord := f.seated("12")
		f.add(ord.ID, line(pizza, 1))
		if _, err := f.l.SendToKitchen(f.ctx, tenantID, ord.ID); err != nil {
			t.Fatal(err)
		}
		f.add(ord.ID, line(pizza, 3))

		ord, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(ord.Items) != 1 || ord.Items[0].Status != order.ItemPreparing {
			t.Errorf("remaining items = %+v", ord.Items)
		}
	})

	t.Run("DeliveredIsConflictEvenForced", func(t *testing.T) {
		ord := f.seated("13")
		f.add(ord.ID, line(pizza, 1))
		for _, step := range []func() error{
			func() error { _, err := f.l.SendToKitchen(f.ctx, tenantID, ord.ID); return err },
			func() error {
				_, err := f.l.UpdateItemStatus(f.ctx, tenantID, ord.ID, pizza.ID, order.ItemReady)
				return err
			},
			func() error { _, err := f.l.DeliverReadyItems(f.ctx, tenantID, ord.ID); return err },
		} {
			if err := step(); err != nil {
				t.Fatal(err)
			}
		}

		_, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, true)
		wantErr(t, err, ledger.ErrConflict)
	})

	t.Run("NoMatch", func(t *testing.T) {
		ord := f.seated("14")
		_, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, pizza.ID, false)
		wantErr(t, err, ledger.ErrNotFound)
	})

	f.assertOccupancy()
}

func TestUpdateItemStatusMonotonic(t *testing.T) {
	f := newFixture(t)
	p := f.product("Papas fritas", 2200, -1)

	tests := []struct {
		name  string
		setup func(t *testing.T, orderID id.OrderID)
		to    order.ItemStatus
		kind  error
	}{
		{name: "skip pending to ready", to: order.ItemReady, kind: ledger.ErrConflict},
		{name: "skip pending to delivered", to: order.ItemDelivered, kind: ledger.ErrConflict},
		{name: "back to pending", to: order.ItemPending, kind: ledger.ErrConflict},
		{
			name: "preparing back to pending",
			setup: func(t *testing.T, orderID id.OrderID) {
				if _, err := f.l.SendToKitchen(f.ctx, tenantID, orderID); err != nil {
					t.Fatal(err)
				}
			},
			to:   order.ItemPending,
			kind: ledger.ErrConflict,
		},
		{
			name: "same state",
			setup: func(t *testing.T, orderID id.OrderID) {
				if _, err := f.l.SendToKitchen(f.ctx, tenantID, orderID); err != nil {
					t.Fatal(err)
				}
			},
			to:   order.ItemPreparing,
			kind: ledger.ErrConflict,
		},
		{name: "unknown status", to: order.ItemStatus("BURNT"), kind: ledger.ErrValidation},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord := f.seated("M" + string(rune('A'+i)))
			f.add(ord.ID, line(p, 1))
			if tt.setup != nil {
				tt.setup(t, ord.ID)
			}
			before, _ := f.l.GetOrder(f.ctx, tenantID, ord.ID)

			_, err := f.l.UpdateItemStatus(f.ctx, tenantID, ord.ID, p.ID, tt.to)
			wantErr(t, err, tt.kind)

			after, _ := f.l.GetOrder(f.ctx, tenantID, ord.ID)
			if after.Items[0].Status != before.Items[0].Status {
				t.Errorf("status changed from %s to %s", before.Items[0].Status, after.Items[0].Status)
			}
		})
	}

	t.Run("single item to preparing stamps sent_at", func(t *testing.T) {
		ord := f.seated("MZ")
		f.add(ord.ID, line(p, 1), line(p, 2))
		ord, err := f.l.UpdateItemStatus(f.ctx, tenantID, ord.ID, p.ID, order.ItemPreparing)
		if err != nil {
			t.Fatal(err)
		}
		if ord.Items[0].Status != order.ItemPreparing || ord.Items[0].SentAt == nil {
			t.Errorf("first line = %+v", ord.Items[0])
		}
		if ord.Items[1].Status != order.ItemPending {
			t.Errorf("second line moved too: %s", ord.Items[1].Status)
		}
	})
}

func TestBulkTransitionsWithoutWork(t *testing.T) {
	f := newFixture(t)
	ord := f.seated("20")
	rec := f.record()

	got, err := f.l.SendToKitchen(f.ctx, tenantID, ord.ID)
	if err != nil {
		t.Fatalf("SendToKitchen on empty order: %v", err)
	}
	if got.ID != ord.ID {
		t.Errorf("returned order %s", got.ID)
	}
	if _, err := f.l.DeliverReadyItems(f.ctx, tenantID, ord.ID); err != nil {
		t.Fatalf("DeliverReadyItems with nothing ready: %v", err)
	}
	if envs := rec.drain(); len(envs) != 0 {
		t.Errorf("no-op calls published %d events", len(envs))
	}
}

func TestPaidOrderIsImmutable(t *testing.T) {
	f := newFixture(t)
	p := f.product("Tiramisú", 3500, -1)
	ord := f.seated("30")
	f.add(ord.ID, line(p, 1))
	if _, err := f.l.CloseOrder(f.ctx, tenantID, ord.ID, f.waiter.ID, order.PaymentCard); err != nil {
		t.Fatal(err)
	}

	calls := map[string]func() error{
		"AddItems": func() error {
			_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, []order.ItemInput{line(p, 1)})
			return err
		},
		"RemoveItem": func() error {
			_, err := f.l.RemoveItem(f.ctx, tenantID, ord.ID, p.ID, true)
			return err
		},
		"SendToKitchen":     func() error { _, err := f.l.SendToKitchen(f.ctx, tenantID, ord.ID); return err },
		"DeliverReadyItems": func() error { _, err := f.l.DeliverReadyItems(f.ctx, tenantID, ord.ID); return err },
		"UpdateItemStatus": func() error {
			_, err := f.l.UpdateItemStatus(f.ctx, tenantID, ord.ID, p.ID, order.ItemPreparing)
			return err
		},
		"CloseOrder": func() error {
			_, err := f.l.CloseOrder(f.ctx, tenantID, ord.ID, f.waiter.ID, order.PaymentCash)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			wantErr(t, call(), ledger.ErrConflict)
		})
	}
}

func TestCloseOrderRejections(t *testing.T) {
	f := newFixture(t)
	p := f.product("Cortado", 1800, -1)
	ord := f.seated("40")
	f.add(ord.ID, line(p, 1))

	_, err := f.l.CloseOrder(f.ctx, tenantID, ord.ID, f.waiter.ID, order.PaymentMethod("CRYPTO"))
	wantErr(t, err, ledger.ErrValidation)

	_, err = f.l.CloseOrder(f.ctx, tenantID, ord.ID, id.NewUserID(), order.PaymentCash)
	wantErr(t, err, ledger.ErrNotFound)

	_, err = f.l.CloseOrder(f.ctx, tenantID, id.NewOrderID(), f.waiter.ID, order.PaymentCash)
	wantErr(t, err, ledger.ErrNotFound)

	current, _ := f.l.GetOrder(f.ctx, tenantID, ord.ID)
	if current.Status != order.StatusOpen {
		t.Errorf("status = %s after rejected closes", current.Status)
	}
	f.assertOccupancy()
}

func TestOrderDrivenStockUsesContextActor(t *testing.T) {
	f := newFixture(t)
	p := f.product("Medialuna", 350, 40)
	ord := f.seated("50")

	ctx := ledger.WithActor(f.ctx, f.waiter.ID)
	if _, err := f.l.AddItems(ctx, tenantID, ord.ID, []order.ItemInput{line(p, 6)}); err != nil {
		t.Fatal(err)
	}

	logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: p.ID, Limit: 1})
	if logs[0].ActorID != f.waiter.ID {
		t.Errorf("actor = %s, want %s", logs[0].ActorID, f.waiter.ID)
	}
}
