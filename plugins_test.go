package ledger_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/order"
)

func TestPluginHooks(t *testing.T) {
	spy := &spyPlugin{}
	f := newFixture(t, ledger.WithPlugin(spy))
	p := f.product("Cerveza tirada", 1500, 7) // min 5
	ord := f.seated("1")

	f.add(ord.ID, line(p, 2)) // 7 -> 5: low
	f.add(ord.ID, line(p, 1)) // 5 -> 4: still low, no repeat
	if _, err := f.l.AddItems(f.ctx, tenantID, ord.ID, []order.ItemInput{line(p, 9)}); err == nil {
		t.Fatal("expected insufficient stock")
	}
	f.add(ord.ID, line(p, 4)) // 4 -> 0: out

	events, low, rejected := spy.snapshot()

	if want := []string{p.Name, p.Name}; !slices.Equal(low, want) {
		t.Errorf("low stock hooks = %v, want %v", low, want)
	}
	if !slices.Equal(rejected, []string{"add_items"}) {
		t.Errorf("rejected hooks = %v", rejected)
	}
	orderUpdates := 0
	for _, typ := range events {
		if typ == event.TypeOrderUpdated {
			orderUpdates++
		}
	}
	if orderUpdates != 3 {
		t.Errorf("order.updated hooks = %d, want 3 (events %v)", orderUpdates, events)
	}
}

func TestFailingPluginDoesNotFailCaller(t *testing.T) {
	f := newFixture(t, ledger.WithPlugin(failingPlugin{}))
	tbl := f.table("1")

	if _, err := f.l.OpenTable(f.ctx, tenantID, tbl.ID); err != nil {
		t.Fatalf("OpenTable: %v", err)
	}
	f.assertOccupancy()
}

type failingPlugin struct{}

func (failingPlugin) Name() string { return "failing" }

func (failingPlugin) OnEvent(context.Context, event.Envelope) error {
	return errors.New("downstream unavailable")
}
