// Package ledger is the transactional state engine of a restaurant floor.
//
// A Ledger owns every write to a tenant's tables, orders, order items,
// product stock and stock audit journal, and keeps the cross-entity rules
// true at every commit:
//
//   - a table is OCCUPIED exactly while one OPEN order references it
//   - an order's total is the sum of its lines and is never taken from input
//   - tracked stock never goes below zero and every movement is journaled
//   - a PAID order never changes again
//
// Ledger is a library, not a service. Import it and inject a store:
//
//	import (
//	    "github.com/gastroflow/ledger"
//	    "github.com/gastroflow/ledger/store/memory"
//	)
//
//	l := ledger.New(memory.New(), ledger.WithLogger(logger))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Floor Operations
//
// Seating a party opens the table and its order in one commit:
//
//	ord, err := l.OpenTable(ctx, tenantID, tableID)
//	ord, err = l.AddItems(ctx, tenantID, ord.ID, []order.ItemInput{
//	    {ProductID: empanadaID, Quantity: 6},
//	})
//	ord, err = l.SendToKitchen(ctx, tenantID, ord.ID)
//	ord, err = l.CloseOrder(ctx, tenantID, ord.ID, waiterID, order.PaymentCash)
//
// Line prices and names are copied from the catalog when added. Tracked
// products lose stock in the same commit, journaled with reason "Venta" and
// the order id as reference.
//
// # Concurrency
//
// Writes to one tenant run one at a time, in arrival order. Writes to
// different tenants run in parallel. Reads never wait for writers and always
// see the last committed state.
//
// # Events
//
// Every committed write publishes exactly one event (see package event).
// Rejected calls publish nothing. Subscribe to a tenant:
//
//	sub := l.Subscribe(tenantID, 64)
//	defer sub.Close()
//	for env := range sub.C {
//	    // env.Type, env.Payload, env.TS
//	}
//
// Delivery is at most once. A subscriber that falls behind or reconnects
// must re-query.
//
// # Errors
//
// Failed calls return one of ValidationError, ConflictError,
// InsufficientStockError or NotFoundError. Match them with errors.Is against
// ErrValidation, ErrConflict, ErrInsufficientStock and ErrNotFound, or with
// errors.As for details. Ids belonging to another tenant are not found.
package ledger
