package policy

import (
	"testing"

	"sauda.org/internal/auth"
)

func actor(role auth.Role) auth.Actor {
	return auth.Actor{ID: "u1", Email: "u1@x.kz", Role: role, Active: true}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name   string
		actor  auth.Actor
		action Action
		facts  Facts
		allow  bool
	}{
		{
			name:   "consumer creates link",
			actor:  actor(auth.RoleConsumer),
			action: ActionLinkCreate,
			allow:  true,
		},
		{
			name:   "supplier owner cannot create link",
			actor:  actor(auth.RoleSupplierOwner),
			action: ActionLinkCreate,
			allow:  false,
		},
		{
			name:   "admin cannot create link",
			actor:  actor(auth.RoleAdmin),
			action: ActionLinkCreate,
			allow:  false,
		},
		{
			name:   "owner transitions own supplier link",
			actor:  actor(auth.RoleSupplierOwner),
			action: ActionLinkTransition,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  true,
		},
		{
			name:   "manager transitions own supplier link",
			actor:  actor(auth.RoleSupplierManager),
			action: ActionLinkTransition,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  true,
		},
		{
			name:   "sales rep cannot transition link",
			actor:  actor(auth.RoleSupplierSales),
			action: ActionLinkTransition,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "cross-supplier staff denied",
			actor:  actor(auth.RoleSupplierOwner),
			action: ActionLinkTransition,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s2"},
			allow:  false,
		},
		{
			name:   "staff without supplier denied",
			actor:  actor(auth.RoleSupplierOwner),
			action: ActionLinkTransition,
			facts:  Facts{SupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "order needs accepted link",
			actor:  actor(auth.RoleConsumer),
			action: ActionOrderCreate,
			facts:  Facts{SupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "order with accepted link",
			actor:  actor(auth.RoleConsumer),
			action: ActionOrderCreate,
			facts:  Facts{SupplierID: "s1", HasAcceptedLink: true},
			allow:  true,
		},
		{
			name:   "consumer views own order",
			actor:  actor(auth.RoleConsumer),
			action: ActionOrderView,
			facts:  Facts{SupplierID: "s1", IsResourceConsumer: true},
			allow:  true,
		},
		{
			name:   "consumer cannot view another consumer's order",
			actor:  actor(auth.RoleConsumer),
			action: ActionOrderView,
			facts:  Facts{SupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "complaint about someone else's order denied",
			actor:  actor(auth.RoleConsumer),
			action: ActionComplaintCreate,
			facts:  Facts{SupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "assigned sales rep views complaint",
			actor:  actor(auth.RoleSupplierSales),
			action: ActionComplaintView,
			facts:  Facts{IsAssignedSalesRep: true, ActorSupplierID: "s1"},
			allow:  true,
		},
		{
			name:   "unassigned staff cannot transition complaint",
			actor:  actor(auth.RoleSupplierManager),
			action: ActionComplaintTransition,
			facts:  Facts{ActorSupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "assigned manager transitions complaint",
			actor:  actor(auth.RoleSupplierManager),
			action: ActionComplaintTransition,
			facts:  Facts{IsAssignedManager: true, ActorSupplierID: "s1"},
			allow:  true,
		},
		{
			name:   "consumer views catalog only through accepted link",
			actor:  actor(auth.RoleConsumer),
			action: ActionProductView,
			facts:  Facts{SupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "sales rep views own catalog",
			actor:  actor(auth.RoleSupplierSales),
			action: ActionProductView,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  true,
		},
		{
			name:   "sales rep cannot manage catalog",
			actor:  actor(auth.RoleSupplierSales),
			action: ActionProductManage,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "admin inspects objects",
			actor:  actor(auth.RoleAdmin),
			action: ActionObjectInspect,
			allow:  true,
		},
		{
			name:   "admin bypass does not extend to transitions",
			actor:  actor(auth.RoleAdmin),
			action: ActionOrderTransition,
			facts:  Facts{SupplierID: "s1", ActorSupplierID: "s1"},
			allow:  false,
		},
		{
			name:   "owner cannot inspect objects",
			actor:  actor(auth.RoleSupplierOwner),
			action: ActionObjectInspect,
			allow:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.actor, tc.action, tc.facts)
			if tc.allow && d != nil {
				t.Fatalf("expected allow, got denial: %s", d.Reason)
			}
			if !tc.allow && d == nil {
				t.Fatalf("expected denial, got allow")
			}
		})
	}
}

func TestInactiveActorAlwaysDenied(t *testing.T) {
	inactive := auth.Actor{ID: "u1", Role: auth.RoleConsumer, Active: false}
	for _, action := range []Action{ActionLinkCreate, ActionOrderView, ActionComplaintView} {
		if d := Decide(inactive, action, Facts{IsResourceConsumer: true}); d == nil {
			t.Fatalf("inactive actor allowed %s", action)
		}
	}
}

func TestUnknownRoleDenied(t *testing.T) {
	weird := auth.Actor{ID: "u1", Role: auth.Role("superuser"), Active: true}
	if d := Decide(weird, ActionLinkCreate, Facts{}); d == nil {
		t.Fatalf("unknown role allowed")
	}
}
