package ledger

import "github.com/gastroflow/ledger/id"

// ID is the identifier type of every floor entity.
type ID = id.ID

// Entity-specific identifiers.
type (
	TableID    = id.TableID
	OrderID    = id.OrderID
	ProductID  = id.ProductID
	CategoryID = id.CategoryID
	UserID     = id.UserID
)

// ParseID decodes an id string of any entity kind.
var ParseID = id.Parse
