package audithook

// Action constants for audit events.
const (
	// Table actions
	ActionTableOpened  = "table.opened"
	ActionTableUpdated = "table.updated"

	// Order actions
	ActionOrderUpdated = "order.updated"
	ActionOrderClosed  = "order.closed"

	// Stock actions
	ActionStockAdjusted = "stock.adjusted"
	ActionStockLow      = "stock.low"
	ActionStockOut      = "stock.out"

	// Rejected mutations
	ActionOperationRejected = "operation.rejected"
)

// Resource constants for audit events.
const (
	ResourceTable   = "table"
	ResourceOrder   = "order"
	ResourceProduct = "product"
	ResourceTenant  = "tenant"
)

// Category constants for audit events.
const (
	CategoryFloor   = "floor"
	CategorySales   = "sales"
	CategoryStock   = "stock"
	CategoryControl = "control"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
