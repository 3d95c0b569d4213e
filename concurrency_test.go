package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/audit"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/tenant"
)

// TestConcurrentSalesNeverOversell races waiters for the last units of a
// product across several tables.
func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	const stock, waiters = 10, 25
	p := f.product("Torta de ricota", 1800, stock)

	orders := make([]*order.Order, waiters)
	for i := range orders {
		orders[i] = f.seated(string(rune('a' + i)))
	}
	rec := f.record()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for _, ord := range orders {
		wg.Add(1)
		go func(ord *order.Order) {
			defer wg.Done()
			_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, []order.ItemInput{line(p, 1)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, ledger.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("AddItems: %v", err)
			}
		}(ord)
	}
	wg.Wait()

	if sold != stock || rejected != waiters-stock {
		t.Errorf("sold %d, rejected %d", sold, rejected)
	}
	if got := f.stockOf(p.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}

	logs, _ := f.l.ListAuditLogs(f.ctx, tenantID, audit.ListOpts{EntityID: p.ID})
	if len(logs) != stock+1 {
		t.Fatalf("journal has %d entries, want %d", len(logs), stock+1)
	}
	// Replaying the journal oldest first reproduces the stock.
	var level int64
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].Before.Stock != level {
			t.Fatalf("entry %d starts at %d, want %d", i, logs[i].Before.Stock, level)
		}
		level = logs[i].After.Stock
	}
	if level != 0 {
		t.Errorf("journal ends at %d", level)
	}

	// Events arrive in commit order, so the published stock only goes down.
	last := int64(stock)
	for _, env := range rec.drain() {
		ou, ok := env.Payload.(event.OrderUpdated)
		if !ok || len(ou.Stock) != 1 {
			t.Fatalf("unexpected event %s", env.Type)
		}
		if q := ou.Stock[0].Quantity; q != last-1 {
			t.Errorf("published stock %d after %d", q, last)
		} else {
			last = q
		}
	}
}

func TestTenantsDoNotBlockEachOther(t *testing.T) {
	f := newFixture(t)
	p := f.product("Café", 200, -1)
	ord := f.seated("1")

	// Hold resto-1's slot from inside a plugin hook while another tenant
	// commits.
	started := make(chan struct{})
	unblock := make(chan struct{})
	blocker := &blockingPlugin{started: started, unblock: unblock}
	if err := f.l.Plugins().Register(blocker); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.l.AddItems(f.ctx, tenantID, ord.ID, []order.ItemInput{line(p, 1)})
		done <- err
	}()
	<-started

	if err := f.store.CreateTenant(f.ctx, &tenant.Tenant{ID: "resto-2", Plan: tenant.PlanPro}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(f.ctx, 2*time.Second)
	defer cancel()
	if _, err := f.l.InsertProduct(ctx, "resto-2", product.CreateRequest{Name: "Té", Price: 150}); err != nil {
		t.Errorf("other tenant blocked: %v", err)
	}

	// The same tenant waits until the slot frees up.
	waitCtx, waitCancel := context.WithTimeout(f.ctx, 50*time.Millisecond)
	defer waitCancel()
	_, err := f.l.InsertProduct(waitCtx, tenantID, product.CreateRequest{Name: "Té", Price: 150})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("same tenant: err = %v, want deadline exceeded", err)
	}

	close(unblock)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestCancelledWaitCommitsNothing(t *testing.T) {
	f := newFixture(t)
	p := f.product("Alfajor", 600, 3)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, _, err := f.l.AdjustStock(ctx, tenantID, p.ID, f.waiter.ID, 5, "Compra de mercadería")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
	if got := f.stockOf(p.ID); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
}

// blockingPlugin parks the first OnEvent call until unblock is closed.
type blockingPlugin struct {
	once    sync.Once
	started chan struct{}
	unblock chan struct{}
}

func (p *blockingPlugin) Name() string { return "blocking" }

func (p *blockingPlugin) OnEvent(ctx context.Context, env event.Envelope) error {
	if env.TenantID != tenantID {
		return nil
	}
	first := false
	p.once.Do(func() { first = true })
	if !first {
		return nil
	}
	close(p.started)
	select {
	case <-p.unblock:
	case <-ctx.Done():
	}
	return nil
}
