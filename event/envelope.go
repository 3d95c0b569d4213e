package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the frame delivered to subscribers: {type, payload, ts}.
// TenantID routes the frame and is not serialized; subscribers are bound to
// one tenant.
type Envelope struct {
	Type     Type   `json:"type"`
	TenantID string `json:"-"`
	Payload  Event  `json:"payload,omitempty"`
	TS       int64  `json:"ts"`
}

// Wrap builds the envelope for e committed at at.
func Wrap(tenantID string, e Event, at time.Time) Envelope {
	return Envelope{
		Type:     e.Type(),
		TenantID: tenantID,
		Payload:  e,
		TS:       at.UnixMilli(),
	}
}

// Time returns TS as a time.
func (e Envelope) Time() time.Time { return time.UnixMilli(e.TS).UTC() }

// UnmarshalJSON restores the concrete payload variant from the type tag.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    Type            `json:"type"`
		Payload json.RawMessage `json:"payload"`
		TS      int64           `json:"ts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var payload Event
	switch raw.Type {
	case TypeTableUpdated:
		payload = &TableUpdated{}
	case TypeOrderUpdated:
		payload = &OrderUpdated{}
	case TypeOrderClosed:
		payload = &OrderClosed{}
	case TypeStockAdjusted:
		payload = &StockAdjusted{}
	case TypeProductUpdated:
		payload = &ProductUpdated{}
	case TypeCategoryUpdated:
		payload = &CategoryUpdated{}
	case TypeUserUpdated:
		payload = &UserUpdated{}
	default:
		return fmt.Errorf("event: unknown type %q", raw.Type)
	}
	if len(raw.Payload) > 0 && string(raw.Payload) != "null" {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return fmt.Errorf("event: decode %s payload: %w", raw.Type, err)
		}
	}

	e.Type = raw.Type
	e.TS = raw.TS
	e.Payload = deref(payload)
	return nil
}

func deref(e Event) Event {
	switch v := e.(type) {
	case *TableUpdated:
		return *v
	case *OrderUpdated:
		return *v
	case *OrderClosed:
		return *v
	case *StockAdjusted:
		return *v
	case *ProductUpdated:
		return *v
	case *CategoryUpdated:
		return *v
	case *UserUpdated:
		return *v
	}
	return e
}

// Publisher delivers committed events. Implementations must not block on
// slow consumers.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, env Envelope) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, env Envelope) error { return f(ctx, env) }
