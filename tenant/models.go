// Package tenant models the customer account that partitions all floor data.
package tenant

import (
	"github.com/gastroflow/ledger/types"
)

// PlanTier is the subscription tier a tenant is on.
type PlanTier string

const (
	PlanBasic      PlanTier = "BASIC"
	PlanPro        PlanTier = "PRO"
	PlanEnterprise PlanTier = "ENTERPRISE"
)

// Limits caps how many entities a tenant may keep active.
type Limits struct {
	Users    int `json:"users"`
	Tables   int `json:"tables"`
	Products int `json:"products"`
}

// Plan describes a tier: display name, monthly price and limits.
type Plan struct {
	Tier   PlanTier    `json:"tier"`
	Name   string      `json:"name"`
	Price  types.Money `json:"price"`
	Limits Limits      `json:"limits"`
}

// Plans is the tier catalog.
var Plans = map[PlanTier]Plan{
	PlanBasic: {
		Tier:   PlanBasic,
		Name:   "Básico",
		Price:  types.USD(4900),
		Limits: Limits{Users: 1, Tables: 10, Products: 50},
	},
	PlanPro: {
		Tier:   PlanPro,
		Name:   "Pro",
		Price:  types.USD(9900),
		Limits: Limits{Users: 3, Tables: 50, Products: 200},
	},
	PlanEnterprise: {
		Tier:   PlanEnterprise,
		Name:   "Enterprise",
		Price:  types.USD(19900),
		Limits: Limits{Users: 9999, Tables: 9999, Products: 9999},
	},
}

// Valid reports whether t is a known tier.
func (t PlanTier) Valid() bool {
	_, ok := Plans[t]
	return ok
}

// Tenant is an isolated restaurant account. It is provisioned outside the
// ledger; the ledger only reads it.
type Tenant struct {
	types.Entity
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Plan     PlanTier `json:"plan"`
	Currency string   `json:"currency"`
}

// Limits resolves the tenant's plan limits. Unknown tiers fall back to BASIC.
func (t *Tenant) Limits() Limits {
	if p, ok := Plans[t.Plan]; ok {
		return p.Limits
	}
	return Plans[PlanBasic].Limits
}

// CurrencyCode returns the tenant currency or the ledger default.
func (t *Tenant) CurrencyCode() string {
	if t.Currency == "" {
		return types.DefaultCurrency
	}
	return t.Currency
}
