package table

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/gastroflow/ledger/id"
)

// Store reads tables. Writes go through the unified store batch.
type Store interface {
	GetTable(ctx context.Context, tenantID string, tableID id.TableID) (*Table, error)
	ListTables(ctx context.Context, tenantID string, opts ListOpts) ([]*Table, error)
}

// ListOpts filters ListTables. Zero values match everything active.
type ListOpts struct {
	Status          Status
	Zone            string
	IncludeInactive bool
}

// Match reports whether t passes the filter.
func (o ListOpts) Match(t *Table) bool {
	if !o.IncludeInactive && !t.IsActive {
		return false
	}
	if o.Status != "" && t.Status != o.Status {
		return false
	}
	if o.Zone != "" && !strings.EqualFold(t.Zone, o.Zone) {
		return false
	}
	return true
}

// SortByNumber orders tables by number, shorter numbers first so "2"
// precedes "10".
func SortByNumber(tables []*Table) {
	slices.SortFunc(tables, func(a, b *Table) int {
		return cmp.Or(
			cmp.Compare(len(a.Number), len(b.Number)),
			strings.Compare(a.Number, b.Number),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
}
