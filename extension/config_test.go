package extension

import (
	"testing"
	"time"
)

func TestMergeWithDefaults(t *testing.T) {
	got := mergeWithDefaults(Config{})
	if got.PluginTimeout != 2*time.Second {
		t.Errorf("PluginTimeout = %v, want 2s", got.PluginTimeout)
	}

	got = mergeWithDefaults(Config{PluginTimeout: time.Second})
	if got.PluginTimeout != time.Second {
		t.Errorf("PluginTimeout = %v, want explicit 1s kept", got.PluginTimeout)
	}
}

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name       string
		yaml, prog Config
		want       Config
	}{
		{
			name: "yaml timeout wins",
			yaml: Config{PluginTimeout: 5 * time.Second},
			prog: Config{PluginTimeout: time.Second},
			want: Config{PluginTimeout: 5 * time.Second},
		},
		{
			name: "programmatic fills gaps",
			yaml: Config{},
			prog: Config{PluginTimeout: time.Second, EnableMetrics: true},
			want: Config{PluginTimeout: time.Second, EnableMetrics: true},
		},
		{
			name: "flags switch on from either side",
			yaml: Config{EnableAuditLog: true},
			prog: Config{DisableMigrate: true},
			want: Config{PluginTimeout: 2 * time.Second, EnableAuditLog: true, DisableMigrate: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeConfigurations(tt.yaml, tt.prog); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOptionsBuildLedgerOptions(t *testing.T) {
	e := New(WithDisableMigrate(), WithPluginTimeout(time.Second), WithAuditLog())
	if !e.config.DisableMigrate || !e.config.EnableAuditLog || e.config.PluginTimeout != time.Second {
		t.Fatalf("config = %+v", e.config)
	}
	// timeout, migrate, audit plugin
	if n := len(e.buildLedgerOpts()); n != 3 {
		t.Errorf("ledger options = %d, want 3", n)
	}
}
