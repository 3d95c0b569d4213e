package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/plugin"
	"github.com/gastroflow/ledger/store"
	"github.com/gastroflow/ledger/store/mongo"
)

// Option configures the floor ledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB backs the ledger with the MongoDB store on db.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.store = mongo.New(db)
	}
}

// WithLedgerOption passes a ledger.Option through to the underlying ledger.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithMetrics registers the Prometheus metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}

// WithAuditLog registers the audit trail plugin.
func WithAuditLog() Option {
	return func(e *Extension) { e.config.EnableAuditLog = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
