// Package lifecycle enforces finite-state-machine discipline over the
// exchange's stateful entities. The transition tables below are the only
// place in the codebase where status changes are decided.
package lifecycle

import (
	"fmt"
	"strings"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

// Payload carries side-constraint inputs for a transition.
type Payload struct {
	// Resolution is required when closing a complaint.
	Resolution string
}

// edge annotates a permitted from→to pair with the roles allowed to traverse
// it and any side-constraint.
type edge struct {
	roles           []auth.Role
	needsResolution bool
}

var ownerOrManager = []auth.Role{auth.RoleSupplierOwner, auth.RoleSupplierManager}

// tables maps (entity kind, from-status) to the set of reachable to-statuses.
// Terminal states simply have no entry. Re-requesting the current status is
// not an edge either: treating it as invalid surfaces client bugs instead of
// hiding them.
var tables = map[exchange.EntityKind]map[string]map[string]edge{
	exchange.EntityLink: {
		string(exchange.LinkPending): {
			string(exchange.LinkAccepted): {roles: ownerOrManager},
			string(exchange.LinkDenied):   {roles: ownerOrManager},
		},
		string(exchange.LinkAccepted): {
			string(exchange.LinkBlocked): {roles: ownerOrManager},
		},
	},
	exchange.EntityOrder: {
		string(exchange.OrderPending): {
			string(exchange.OrderAccepted): {roles: ownerOrManager},
			string(exchange.OrderRejected): {roles: ownerOrManager},
		},
		string(exchange.OrderAccepted): {
			string(exchange.OrderInProgress): {roles: ownerOrManager},
		},
		string(exchange.OrderInProgress): {
			string(exchange.OrderCompleted): {roles: ownerOrManager},
		},
	},
	// Owners appear on every manager edge: the assigned manager may hold the
	// owner staff role, and a supplier run by its owner alone must still be
	// able to work complaints.
	exchange.EntityComplaint: {
		string(exchange.ComplaintOpen): {
			string(exchange.ComplaintEscalated): {roles: []auth.Role{auth.RoleSupplierSales, auth.RoleSupplierManager, auth.RoleSupplierOwner}},
			string(exchange.ComplaintResolved):  {roles: []auth.Role{auth.RoleSupplierManager, auth.RoleSupplierOwner}, needsResolution: true},
		},
		string(exchange.ComplaintEscalated): {
			string(exchange.ComplaintResolved): {roles: []auth.Role{auth.RoleSupplierManager, auth.RoleSupplierOwner}, needsResolution: true},
		},
	},
}

// InitialStatus returns the status newly created entities start in.
func InitialStatus(kind exchange.EntityKind) string {
	switch kind {
	case exchange.EntityLink:
		return string(exchange.LinkPending)
	case exchange.EntityOrder:
		return string(exchange.OrderPending)
	case exchange.EntityComplaint:
		return string(exchange.ComplaintOpen)
	}
	return ""
}

// Apply validates the requested transition against the table: first the edge
// must exist, then the actor's role must be in the edge's authorized set,
// and the side-constraint is evaluated last. The role gate here is a second,
// transition-specific authorization layer on top of the coarse policy check.
func Apply(kind exchange.EntityKind, current, requested string, role auth.Role, p Payload) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("%w: unknown entity kind %q", exchange.ErrInvalidInput, kind)
	}
	e, ok := table[current][requested]
	if !ok {
		return fmt.Errorf("%w: %s cannot move from %s to %s", exchange.ErrInvalidTransition, kind, current, requested)
	}
	allowed := false
	for _, r := range e.roles {
		if role == r {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: role %s may not drive %s→%s", exchange.ErrForbidden, role, current, requested)
	}
	if e.needsResolution && strings.TrimSpace(p.Resolution) == "" {
		return exchange.ErrMissingResolution
	}
	return nil
}
