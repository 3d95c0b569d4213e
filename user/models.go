// Package user models staff accounts. The ledger reads them only to
// attribute changes to an actor.
package user

import (
	"slices"

	"github.com/gastroflow/ledger/id"
	"github.com/gastroflow/ledger/types"
)

// Role is a staff role.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleWaiter  Role = "WAITER"
	RoleKitchen Role = "KITCHEN"
)

// Permission ids.
const (
	PermTablesView   = "tables.view"
	PermTablesEdit   = "tables.edit"
	PermTablesManage = "tables.manage"
	PermKitchenView  = "kitchen.view"
	PermKitchenMan   = "kitchen.manage"
	PermMenuView     = "menu.view"
	PermMenuEdit     = "menu.edit"
	PermStockView    = "stock.view"
	PermStockAdjust  = "stock.adjust"
	PermUsersManage  = "users.manage"
)

// User is a staff member of a tenant.
type User struct {
	types.Entity
	ID          id.UserID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
}

// Clone returns an independent copy.
func (u *User) Clone() *User {
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}

// Can reports whether the user holds perm. Admins hold every permission.
func (u *User) Can(perm string) bool {
	return u.Role == RoleAdmin || slices.Contains(u.Permissions, perm)
}

// CreateRequest holds the fields accepted when a user is added.
type CreateRequest struct {
	Name        string   `json:"name"        validate:"required,max=120"`
	Email       string   `json:"email"       validate:"required,email"`
	Role        Role     `json:"role"        validate:"required,oneof=ADMIN MANAGER WAITER KITCHEN"`
	Permissions []string `json:"permissions"`
}
