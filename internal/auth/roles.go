package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles known to the exchange. Adding a role means
// revisiting every switch over this type.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleConsumer        Role = "consumer"
	RoleSupplierOwner   Role = "supplier_owner"
	RoleSupplierManager Role = "supplier_manager"
	RoleSupplierSales   Role = "supplier_sales"
)

// Roles lists every valid role in a stable order.
var Roles = []Role{
	RoleAdmin,
	RoleConsumer,
	RoleSupplierOwner,
	RoleSupplierManager,
	RoleSupplierSales,
}

// ParseRole normalizes and validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleConsumer, RoleSupplierOwner, RoleSupplierManager, RoleSupplierSales:
		return true
	}
	return false
}

// SupplierSide reports whether the role works for a supplier.
func (r Role) SupplierSide() bool {
	switch r {
	case RoleSupplierOwner, RoleSupplierManager, RoleSupplierSales:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
