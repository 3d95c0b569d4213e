// Package audit models the append-only stock movement journal.
package audit

import (
	"time"

	"github.com/gastroflow/ledger/id"
)

// Action names the kind of audited change.
type Action string

// ActionStockAdjust is recorded for every stock quantity change.
const ActionStockAdjust Action = "STOCK_ADJUST"

// System reasons for stock movements the ledger performs itself.
const (
	ReasonSale    = "Venta"
	ReasonCancel  = "Cancelación"
	ReasonInitial = "Stock inicial"
)

// Reasons offered to staff for manual adjustments.
var Reasons = []string{
	"Compra de mercadería",
	"Merma / Desperdicio",
	"Consumo interno",
	"Error de inventario",
}

// Snapshot is the audited state of an entity before or after a change.
type Snapshot struct {
	Stock int64 `json:"stock"`
}

// Log is one audit entry. Entries are never edited or deleted.
type Log struct {
	ID          id.AuditID `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Action      Action     `json:"action"`
	EntityID    id.ID      `json:"entity_id"`
	Before      Snapshot   `json:"before"`
	After       Snapshot   `json:"after"`
	Reason      string     `json:"reason"`
	ActorID     id.UserID  `json:"actor_id,omitzero"`
	ReferenceID id.ID      `json:"reference_id,omitzero"`
	Timestamp   time.Time  `json:"timestamp"`
}

// Delta is After.Stock - Before.Stock.
func (l *Log) Delta() int64 { return l.After.Stock - l.Before.Stock }
