// Package table models the physical seating units of a restaurant floor.
package table

import (
	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/types"
)

// Status is the occupancy state of a table.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOccupied  Status = "OCCUPIED"
	StatusReserved  Status = "RESERVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved:
		return true
	}
	return false
}

// Table is a seating unit. OCCUPIED holds exactly when one OPEN order
// references the table.
type Table struct {
	types.Entity
	ID       id.TableID `json:"id"`
	TenantID string     `json:"tenant_id"`
	Number   string     `json:"number"`
	Capacity int        `json:"capacity"`
	Zone     string     `json:"zone"`
	Status   Status     `json:"status"`
	IsActive bool       `json:"is_active"`
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	c := *t
	return &c
}

// CanOpen reports whether an order may be opened on a table in state s.
// RESERVED tables are opened when the party is seated.
func (s Status) CanOpen() bool {
	return s == StatusAvailable || s == StatusReserved
}

// ManualTransition reports whether staff may move a table from one status to
// another through an edit. Occupancy changes only by opening or closing an
// order.
func ManualTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch {
	case from == StatusAvailable && to == StatusReserved:
		return true
	case from == StatusReserved && to == StatusAvailable:
		return true
	}
	return false
}

// CreateRequest holds the fields accepted when a table is added.
type CreateRequest struct {
	Number   string `json:"number"   validate:"required,max=16"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=100"`
	Zone     string `json:"zone"     validate:"max=64"`
}

// UpdateRequest enumerates the mutable table fields. Nil fields are left as is.
type UpdateRequest struct {
	Number   *string `json:"number,omitempty"   validate:"omitempty,min=1,max=16"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=100"`
	Zone     *string `json:"zone,omitempty"     validate:"omitempty,max=64"`
	Status   *Status `json:"status,omitempty"   validate:"omitempty,oneof=AVAILABLE OCCUPIED RESERVED"`
}
