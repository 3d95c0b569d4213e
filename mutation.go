package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/product"
	"github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/tenant"
)

// mutation is the working set of one write operation. Operations load
// committed state, change copies of it, stage the copies in batch and set
// event. A mutation that sets no event commits nothing.
type mutation struct {
	tenant *tenant.Tenant
	at     time.Time
	actor  id.UserID
	batch  store.Batch
	event  event.Event

	// Working copies of products touched by this mutation, by id.
	products map[id.ProductID]*product.Product
	lowStock []*product.Product
}

// mutate runs fn inside the tenant's write slot, commits what it staged as
// one atomic batch and publishes its event. Rejections are reported to
// plugins after the slot is released.
func (l *Ledger) mutate(ctx context.Context, tenantID, op string, fn func(ctx context.Context, m *mutation) error) (err error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("ledger.tenant_id", tenantID),
		attribute.String("ledger.operation", op),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("ledger.error_kind", Kind(err)))
			l.logger.Debug("ledger mutation rejected",
				"op", op,
				"tenant_id", tenantID,
				"kind", Kind(err),
				"error", err,
			)
			l.plugins.EmitRejected(context.WithoutCancel(ctx), tenantID, op, err)
		}
		span.End()
	}()

	if strings.TrimSpace(tenantID) == "" {
		return invalid("tenant_id", "is required")
	}

	// Slots are only created for tenants that exist.
	t, err := l.store.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	release, err := l.acquire(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("ledger: %s: wait for tenant slot: %w", op, err)
	}
	defer release()

	m := &mutation{
		tenant:   t,
		at:       l.now().UTC(),
		actor:    ActorFrom(ctx),
		products: make(map[id.ProductID]*product.Product),
	}
	if err := fn(ctx, m); err != nil {
		return err
	}
	if m.event == nil {
		return nil
	}

	if err := l.store.Apply(ctx, tenantID, &m.batch); err != nil {
		return fmt.Errorf("ledger: %s: commit: %w", op, err)
	}
	l.publish(ctx, tenantID, m)
	return nil
}

// publish hands the committed event to the broker, extra publishers and
// plugins. Failures are logged; the mutation is already durable.
func (l *Ledger) publish(ctx context.Context, tenantID string, m *mutation) {
	ctx = context.WithoutCancel(ctx)
	env := event.Wrap(tenantID, m.event, m.at)

	if err := l.broker.Publish(ctx, env); err != nil {
		l.logger.Warn("event publish failed", "tenant_id", tenantID, "type", env.Type, "error", err)
	}
	for _, p := range l.publishers {
		if err := p.Publish(ctx, env); err != nil {
			l.logger.Warn("event publish failed", "tenant_id", tenantID, "type", env.Type, "error", err)
		}
	}
	l.plugins.EmitEvent(ctx, env)
	for _, p := range m.lowStock {
		l.plugins.EmitLowStock(ctx, tenantID, p)
	}

	l.logger.Debug("event published", "tenant_id", tenantID, "type", env.Type)
}

// product returns the mutation's working copy of a product, loading it on
// first use so repeated touches see earlier staged changes.
func (l *Ledger) product(ctx context.Context, m *mutation, productID id.ProductID) (*product.Product, error) {
	if p, ok := m.products[productID]; ok {
		return p, nil
	}
	if productID.IsNil() {
		return nil, invalid("product_id", "is required")
	}
	p, err := l.store.GetProduct(ctx, m.tenant.ID, productID)
	if err != nil {
		return nil, err
	}
	m.products[productID] = p
	return p, nil
}
