package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/store/memory"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

const tenantID = "resto-1"

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memory.Store
	l      *ledger.Ledger
	waiter *user.User
}

// newFixture builds a started ledger over a memory store with one
// ENTERPRISE tenant and one waiter.
func newFixture(t *testing.T, opts ...ledger.Option) *fixture {
	t.Helper()
	return newFixtureOnPlan(t, tenant.PlanEnterprise, opts...)
}

func newFixtureOnPlan(t *testing.T, plan tenant.PlanTier, opts ...ledger.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	if err := s.CreateTenant(ctx, &tenant.Tenant{ID: tenantID, Name: "La Esquina", Plan: plan, Currency: "ars"}); err != nil {
		t.Fatal(err)
	}

	l := ledger.New(s, opts...)
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	f := &fixture{t: t, ctx: ctx, store: s, l: l}
	f.waiter = f.user("Ana", "ana@laesquina.test", user.RoleWaiter)
	return f
}

func (f *fixture) user(name, email string, role user.Role) *user.User {
	f.t.Helper()
	u, err := f.l.InsertUser(f.ctx, tenantID, user.CreateRequest{Name: name, Email: email, Role: role})
	if err != nil {
		f.t.Fatalf("InsertUser(%s): %v", name, err)
	}
	return u
}

func (f *fixture) table(number string) *table.Table {
	f.t.Helper()
	tbl, err := f.l.InsertTable(f.ctx, tenantID, table.CreateRequest{Number: number, Capacity: 4, Zone: "Salón"})
	if err != nil {
		f.t.Fatalf("InsertTable(%s): %v", number, err)
	}
	return tbl
}

// product inserts a product. A negative stock means untracked.
func (f *fixture) product(name string, price, stock int64) *product.Product {
	f.t.Helper()
	req := product.CreateRequest{Name: name, Price: price}
	if stock >= 0 {
		req.StockEnabled = true
		req.StockQuantity = stock
	}
	p, err := f.l.InsertProduct(f.ctx, tenantID, req)
	if err != nil {
		f.t.Fatalf("InsertProduct(%s): %v", name, err)
	}
	return p
}

func (f *fixture) stockOf(productID id.ProductID) int64 {
	f.t.Helper()
	p, err := f.l.GetProduct(f.ctx, tenantID, productID)
	if err != nil {
		f.t.Fatal(err)
	}
	return p.StockQuantity
}

func (f *fixture) tableStatus(tableID id.TableID) table.Status {
	f.t.Helper()
	tbl, err := f.l.GetTable(f.ctx, tenantID, tableID)
	if err != nil {
		f.t.Fatal(err)
	}
	return tbl.Status
}

// assertOccupancy checks that every table is OCCUPIED exactly when one OPEN
// order references it.
func (f *fixture) assertOccupancy() {
	f.t.Helper()
	tables, err := f.l.ListTables(f.ctx, tenantID, table.ListOpts{IncludeInactive: true})
	if err != nil {
		f.t.Fatal(err)
	}
	for _, tbl := range tables {
		open, err := f.store.ListOrders(f.ctx, tenantID, order.ListOpts{Status: order.StatusOpen, TableID: tbl.ID})
		if err != nil {
			f.t.Fatal(err)
		}
		occupied := tbl.Status == table.StatusOccupied
		if occupied != (len(open) == 1) || len(open) > 1 {
			f.t.Errorf("table %s is %s with %d open orders", tbl.Number, tbl.Status, len(open))
		}
	}
}

func wantErr(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

// recorder captures the events of one tenant.
type recorder struct {
	sub *event.Subscription
}

func (f *fixture) record() *recorder {
	r := &recorder{sub: f.l.Subscribe(tenantID, 256)}
	f.t.Cleanup(r.sub.Close)
	return r
}

// drain returns the envelopes delivered so far. Publication is synchronous
// with the call, so everything committed is already queued.
func (r *recorder) drain() []event.Envelope {
	var out []event.Envelope
	for {
		select {
		case env := <-r.sub.C:
			out = append(out, env)
		default:
			return out
		}
	}
}

// spyPlugin records hook calls.
type spyPlugin struct {
	mu       sync.Mutex
	events   []event.Type
	lowStock []string
	rejected []string
}

func (p *spyPlugin) Name() string { return "spy" }

func (p *spyPlugin) OnEvent(_ context.Context, env event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, env.Type)
	return nil
}

func (p *spyPlugin) OnLowStock(_ context.Context, _ string, pr *product.Product) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStock = append(p.lowStock, pr.Name)
	return nil
}

func (p *spyPlugin) OnRejected(_ context.Context, _, op string, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, op)
	return nil
}

func (p *spyPlugin) snapshot() (events []event.Type, low, rejected []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Type(nil), p.events...), append([]string(nil), p.lowStock...), append([]string(nil), p.rejected...)
}

// fixedClock advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}
