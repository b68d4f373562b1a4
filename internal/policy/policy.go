// Package policy decides whether an actor may address a resource. Decisions
// are pure functions of the actor, the requested action and relationship
// facts supplied by the data layer; the package never touches storage.
package policy

import (
	"fmt"

	"sauda.org/internal/auth"
)

// Action names an operation on a resource kind.
type Action string

const (
	ActionLinkCreate          Action = "link.create"
	ActionLinkView            Action = "link.view"
	ActionLinkTransition      Action = "link.transition"
	ActionOrderCreate         Action = "order.create"
	ActionOrderView           Action = "order.view"
	ActionOrderTransition     Action = "order.transition"
	ActionComplaintCreate     Action = "complaint.create"
	ActionComplaintView       Action = "complaint.view"
	ActionComplaintTransition Action = "complaint.transition"
	ActionProductView         Action = "product.view"
	ActionProductManage       Action = "product.manage"
	ActionObjectInspect       Action = "object.inspect"
)

// Facts are derived relationship booleans and identifiers describing how the
// actor relates to the target resource. They are queried by the surrounding
// data layer and passed in as plain values.
type Facts struct {
	// SupplierID is the supplier the resource belongs to, if any.
	SupplierID string
	// ActorSupplierID is the single supplier the actor owns or works for.
	// Staff roles are scoped to it; cross-supplier access is always denied.
	ActorSupplierID string
	// IsResourceConsumer reports that the actor is the consumer on the
	// resource (link, order or complaint).
	IsResourceConsumer bool
	// IsAssignedSalesRep and IsAssignedManager report complaint assignments.
	IsAssignedSalesRep bool
	IsAssignedManager  bool
	// HasAcceptedLink reports an accepted link between the actor's consumer
	// profile and SupplierID.
	HasAcceptedLink bool
}

// Denial explains a deny decision.
type Denial struct {
	Reason string
}

func (d *Denial) Error() string { return "policy: denied: " + d.Reason }

func deny(format string, args ...any) *Denial {
	return &Denial{Reason: fmt.Sprintf(format, args...)}
}

// Decide evaluates the policy for one action. A nil return means allow.
// Deny wins: every required predicate must hold; the only OR is between the
// explicitly listed roles of a single action. Admin bypasses nothing but
// object inspection.
func Decide(actor auth.Actor, action Action, f Facts) *Denial {
	if !actor.Role.Valid() {
		return deny("unknown role %q", actor.Role)
	}
	if !actor.Active {
		return deny("account is inactive")
	}

	switch action {
	case ActionLinkCreate:
		return requireRole(actor, auth.RoleConsumer)

	case ActionLinkView:
		if f.IsResourceConsumer {
			return nil
		}
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager, auth.RoleSupplierSales); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionLinkTransition:
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionOrderCreate:
		if d := requireRole(actor, auth.RoleConsumer); d != nil {
			return d
		}
		if !f.HasAcceptedLink {
			return deny("no accepted link with supplier")
		}
		return nil

	case ActionOrderView:
		if f.IsResourceConsumer {
			return nil
		}
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager, auth.RoleSupplierSales); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionOrderTransition:
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionComplaintCreate:
		if d := requireRole(actor, auth.RoleConsumer); d != nil {
			return d
		}
		if !f.IsResourceConsumer {
			return deny("order does not belong to the actor")
		}
		return nil

	case ActionComplaintView:
		if f.IsResourceConsumer || f.IsAssignedSalesRep || f.IsAssignedManager {
			return nil
		}
		return deny("not a participant of the complaint")

	case ActionComplaintTransition:
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager, auth.RoleSupplierSales); d != nil {
			return d
		}
		if !f.IsAssignedSalesRep && !f.IsAssignedManager {
			return deny("not assigned to the complaint")
		}
		return nil

	case ActionProductView:
		if actor.Role == auth.RoleConsumer {
			if !f.HasAcceptedLink {
				return deny("no accepted link with supplier")
			}
			return nil
		}
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager, auth.RoleSupplierSales); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionProductManage:
		if d := requireRole(actor, auth.RoleSupplierOwner, auth.RoleSupplierManager); d != nil {
			return d
		}
		return requireSameSupplier(f)

	case ActionObjectInspect:
		// The one explicit admin bypass.
		return requireRole(actor, auth.RoleAdmin)
	}
	return deny("unknown action %q", action)
}

func requireRole(actor auth.Actor, allowed ...auth.Role) *Denial {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return deny("role %s is not permitted", actor.Role)
}

// requireSameSupplier scopes staff roles to the one supplier they belong to.
func requireSameSupplier(f Facts) *Denial {
	if f.SupplierID == "" || f.ActorSupplierID == "" || f.SupplierID != f.ActorSupplierID {
		return deny("resource belongs to a different supplier")
	}
	return nil
}
