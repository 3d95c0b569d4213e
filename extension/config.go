package extension

import "time"

// Config holds the floor ledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.ledger" or "ledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// PluginTimeout bounds each plugin hook call (default: 2s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// EnableMetrics registers the Prometheus metrics plugin on the default
	// registerer.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// EnableAuditLog registers the audit trail plugin, recording to the
	// default slog logger.
	EnableAuditLog bool `json:"enable_audit_log" mapstructure:"enable_audit_log" yaml:"enable_audit_log"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PluginTimeout: 2 * time.Second,
	}
}
