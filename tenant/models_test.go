package tenant_test

import (
	"testing"

	"github.com/gastroflow/ledger/tenant"
)

func TestLimits(t *testing.T) {
	tests := []struct {
		plan tenant.PlanTier
		want tenant.Limits
	}{
		{tenant.PlanBasic, tenant.Limits{Users: 1, Tables: 10, Products: 50}},
		{tenant.PlanPro, tenant.Limits{Users: 3, Tables: 50, Products: 200}},
		{tenant.PlanEnterprise, tenant.Limits{Users: 9999, Tables: 9999, Products: 9999}},
		{"GOLD", tenant.Limits{Users: 1, Tables: 10, Products: 50}},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			tn := &tenant.Tenant{ID: "t1", Plan: tt.plan}
			if got := tn.Limits(); got != tt.want {
				t.Errorf("Limits() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanTierValid(t *testing.T) {
	if !tenant.PlanPro.Valid() {
		t.Error("PRO should be valid")
	}
	if tenant.PlanTier("FREE").Valid() {
		t.Error("FREE should not be valid")
	}
}

func TestCurrencyCode(t *testing.T) {
	if got := (&tenant.Tenant{}).CurrencyCode(); got != "ars" {
		t.Errorf("default currency = %q", got)
	}
	if got := (&tenant.Tenant{Currency: "usd"}).CurrencyCode(); got != "usd" {
		t.Errorf("currency = %q", got)
	}
}
