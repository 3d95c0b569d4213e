package ledger

import (
	"github.com/gastroflow/ledger/event"
	"github.com/gastroflow/ledger/types"
)

// Re-export common types so callers don't have to import types and event
// for everyday use.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Event and Envelope are re-exported from event package.
type (
	Event    = event.Event
	Envelope = event.Envelope
)

// Re-export Money constructors
var (
	ARS  = types.ARS
	USD  = types.USD
	Zero = types.Zero
	Sum  = types.Sum
)
