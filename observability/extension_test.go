package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/observability"
	"github.com/gastroflow/ledger/order"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/store/memory"
	"github.com/gastroflow/ledger/table"
	"github.com/gastroflow/ledger/tenant"
	"github.com/gastroflow/ledger/user"
)

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.CreateTenant(ctx, &tenant.Tenant{ID: "resto-1", Plan: tenant.PlanPro}); err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	l := ledger.New(s, ledger.WithPlugin(metrics))
	if err := l.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	u, err := l.InsertUser(ctx, "resto-1", user.CreateRequest{Name: "Ana", Email: "ana@example.com", Role: user.RoleWaiter})
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := l.InsertTable(ctx, "resto-1", table.CreateRequest{Number: "1", Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}
	p, err := l.InsertProduct(ctx, "resto-1", product.CreateRequest{Name: "Empanada", Price: 45000, StockEnabled: true, StockQuantity: 6})
	if err != nil {
		t.Fatal(err)
	}
	ord, err := l.OpenTable(ctx, "resto-1", tbl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddItems(ctx, "resto-1", ord.ID, []order.ItemInput{{ProductID: p.ID, Quantity: 6}}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddItems(ctx, "resto-1", ord.ID, []order.ItemInput{{ProductID: p.ID, Quantity: 1}}); err == nil {
		t.Fatal("expected insufficient stock")
	}
	if _, err := l.CloseOrder(ctx, "resto-1", ord.ID, u.ID, order.PaymentCash); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		c    observability.Counter
		want float64
	}{
		{"events", metrics.EventsPublished, 6},
		{"tables opened", metrics.TablesOpened, 1},
		{"tables updated", metrics.TablesUpdated, 1},
		{"orders updated", metrics.OrdersUpdated, 1},
		{"orders closed", metrics.OrdersClosed, 1},
		{"units sold", metrics.UnitsSold, 6},
		{"out of stock", metrics.StockOut, 1},
		{"low stock", metrics.StockLow, 0},
		{"rejected insufficient stock", metrics.RejectedInsufficientStock, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c.(prometheus.Counter)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := observability.NewPrometheusFactory(reg)
	b := observability.NewPrometheusFactory(reg)

	a.Counter("ledger.order.closed").Inc()
	b.Counter("ledger.order.closed").Inc()
	if a.Counter("ledger.order.closed") != a.Counter("ledger.order.closed") {
		t.Error("same factory returned distinct counters")
	}

	n, err := testutil.GatherAndCount(reg, "ledger_order_closed_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(a.Counter("ledger.order.closed").(prometheus.Counter)); got != 2 {
		t.Errorf("value = %v, want 2", got)
	}
}
