package user

import (
	"context"

	"github.com/gastroflow/ledger/id"
)

// Store reads users.
type Store interface {
	GetUser(ctx context.Context, tenantID string, userID id.UserID) (*User, error)
	ListUsers(ctx context.Context, tenantID string, opts ListOpts) ([]*User, error)
}

// ListOpts filters ListUsers.
type ListOpts struct {
	Role       Role
	ActiveOnly bool
}

// Match reports whether u passes the filter.
func (o ListOpts) Match(u *User) bool {
	if o.ActiveOnly && !u.IsActive {
		return false
	}
	return o.Role == "" || u.Role == o.Role
}
