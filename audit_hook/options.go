package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithEnabledActions records only the listed actions.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, action := range actions {
			e.enabled[action] = true
		}
	}
}

// WithDisabledActions records every action except the listed ones.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool, len(knownActions))
			for _, action := range knownActions {
				e.enabled[action] = true
			}
		}
		for _, action := range actions {
			delete(e.enabled, action)
		}
	}
}

// WithCategories records only actions in the listed categories, such as
// CategoryStock.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		e.categories = make(map[string]bool, len(categories))
		for _, c := range categories {
			e.categories[c] = true
		}
	}
}

// WithMinSeverity drops events below severity. Unknown severities are
// treated as info.
func WithMinSeverity(severity string) Option {
	return func(e *Extension) { e.minSeverity = severityRank[severity] }
}

var knownActions = []string{
	ActionTableOpened,
	ActionTableUpdated,
	ActionOrderUpdated,
	ActionOrderClosed,
	ActionStockAdjusted,
	ActionStockLow,
	ActionStockOut,
	ActionOperationRejected,
}

var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}
