package tenant

import "context"

// Store persists tenants. Tenants are created by provisioning, never by
// floor operations.
type Store interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	GetTenant(ctx context.Context, tenantID string) (*Tenant, error)
}
