package audit

import (
	"context"
	"time"

	"github.com/gastroflow/ledger/id"
)

// Store reads the audit journal. Entries are appended through the unified
// store batch only.
type Store interface {
	ListAuditLogs(ctx context.Context, tenantID string, opts ListOpts) ([]*Log, error)
}

// ListOpts filters ListAuditLogs. Results are newest first.
type ListOpts struct {
	Action   Action
	EntityID id.ID
	From     time.Time // inclusive
	To       time.Time // exclusive
	Limit    int
}

// Match applies every filter except Limit.
func (o ListOpts) Match(l *Log) bool {
	if o.Action != "" && l.Action != o.Action {
		return false
	}
	if !o.EntityID.IsNil() && l.EntityID != o.EntityID {
		return false
	}
	if !o.From.IsZero() && l.Timestamp.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && !l.Timestamp.Before(o.To) {
		return false
	}
	return true
}
