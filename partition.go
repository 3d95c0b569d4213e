package ledger

import "context"

// acquire takes the tenant's write slot. Waiters are served in arrival
// order; a cancelled ctx abandons the wait.
func (l *Ledger) acquire(ctx context.Context, tenantID string) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.slotsMu.Lock()
	slot, ok := l.slots[tenantID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[tenantID] = slot
	}
	l.slotsMu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
