package postgres

import (
	"testing"
	"time"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/types"
)

func TestOrderModelRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	o := order.New("resto-1", id.NewTableID(), "ars", now)
	p1, p2 := id.NewProductID(), id.NewProductID()
	o.Items = []order.Item{
		{ProductID: p1, Name: "Empanada", Quantity: 3, Price: types.New(45000, "ars"), Status: order.ItemPending, AddedAt: now},
		{ProductID: p2, Name: "Flan", Quantity: 1, Price: types.New(30000, "ars"), Status: order.ItemReady, AddedAt: now},
		{ProductID: p1, Name: "Empanada", Quantity: 2, Price: types.New(45000, "ars"), Status: order.ItemPending, AddedAt: now},
	}
	if err := o.Recalculate(); err != nil {
		t.Fatal(err)
	}

	m := toOrderModel(o)
	if m.ItemStatuses != ",PENDING,READY," {
		t.Errorf("ItemStatuses = %q", m.ItemStatuses)
	}
	if m.TotalAmount != 255000 {
		t.Errorf("TotalAmount = %d, want 255000", m.TotalAmount)
	}

	back, err := fromOrderModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if back.ID != o.ID || back.TableID != o.TableID || !back.ClosedBy.IsNil() {
		t.Errorf("ids not preserved: %+v", back)
	}
	if len(back.Items) != 3 || back.Items[1].Status != order.ItemReady || back.Items[2].Quantity != 2 {
		t.Errorf("items = %+v", back.Items)
	}
	if back.Total != o.Total {
		t.Errorf("total = %v, want %v", back.Total, o.Total)
	}
}

func TestEmptyOrderHasNoItemStatuses(t *testing.T) {
	o := order.New("resto-1", id.NewTableID(), "ars", time.Now())
	if got := toOrderModel(o).ItemStatuses; got != "" {
		t.Errorf("ItemStatuses = %q, want empty", got)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"malbec", "malbec"},
		{"50%", `50\%`},
		{"a_b", `a\_b`},
		{`c:\x`, `c:\\x`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
