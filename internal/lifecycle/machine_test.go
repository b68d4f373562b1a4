package lifecycle

import (
	"errors"
	"testing"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

func TestApply(t *testing.T) {
	cases := []struct {
		name      string
		kind      exchange.EntityKind
		from, to  string
		role      auth.Role
		payload   Payload
		wantErr   error
		wantAllow bool
	}{
		{
			name: "link pending to accepted by owner",
			kind: exchange.EntityLink, from: "pending", to: "accepted",
			role: auth.RoleSupplierOwner, wantAllow: true,
		},
		{
			name: "link pending to denied by manager",
			kind: exchange.EntityLink, from: "pending", to: "denied",
			role: auth.RoleSupplierManager, wantAllow: true,
		},
		{
			name: "link accepted to blocked",
			kind: exchange.EntityLink, from: "accepted", to: "blocked",
			role: auth.RoleSupplierOwner, wantAllow: true,
		},
		{
			name: "link denied is terminal",
			kind: exchange.EntityLink, from: "denied", to: "pending",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "link blocked is terminal",
			kind: exchange.EntityLink, from: "blocked", to: "accepted",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "re-requesting current status is invalid",
			kind: exchange.EntityLink, from: "pending", to: "pending",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "sales rep may not accept link",
			kind: exchange.EntityLink, from: "pending", to: "accepted",
			role: auth.RoleSupplierSales, wantErr: exchange.ErrForbidden,
		},
		{
			name: "consumer may not accept link",
			kind: exchange.EntityLink, from: "pending", to: "accepted",
			role: auth.RoleConsumer, wantErr: exchange.ErrForbidden,
		},
		{
			name: "order pending to accepted",
			kind: exchange.EntityOrder, from: "pending", to: "accepted",
			role: auth.RoleSupplierManager, wantAllow: true,
		},
		{
			name: "order cannot skip to completed",
			kind: exchange.EntityOrder, from: "pending", to: "completed",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "order accepted to in_progress",
			kind: exchange.EntityOrder, from: "accepted", to: "in_progress",
			role: auth.RoleSupplierOwner, wantAllow: true,
		},
		{
			name: "order in_progress to completed",
			kind: exchange.EntityOrder, from: "in_progress", to: "completed",
			role: auth.RoleSupplierManager, wantAllow: true,
		},
		{
			name: "order rejected is terminal",
			kind: exchange.EntityOrder, from: "rejected", to: "pending",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "sales rep escalates complaint",
			kind: exchange.EntityComplaint, from: "open", to: "escalated",
			role: auth.RoleSupplierSales, wantAllow: true,
		},
		{
			name: "sales rep may not resolve",
			kind: exchange.EntityComplaint, from: "open", to: "resolved",
			role: auth.RoleSupplierSales, payload: Payload{Resolution: "refund issued"},
			wantErr: exchange.ErrForbidden,
		},
		{
			name: "manager resolves open complaint",
			kind: exchange.EntityComplaint, from: "open", to: "resolved",
			role: auth.RoleSupplierManager, payload: Payload{Resolution: "refund issued"},
			wantAllow: true,
		},
		{
			name: "manager resolves escalated complaint",
			kind: exchange.EntityComplaint, from: "escalated", to: "resolved",
			role: auth.RoleSupplierOwner, payload: Payload{Resolution: "replacement shipped"},
			wantAllow: true,
		},
		{
			name: "resolution text is required",
			kind: exchange.EntityComplaint, from: "open", to: "resolved",
			role: auth.RoleSupplierManager, payload: Payload{Resolution: "   "},
			wantErr: exchange.ErrMissingResolution,
		},
		{
			name: "resolved is terminal",
			kind: exchange.EntityComplaint, from: "resolved", to: "open",
			role: auth.RoleSupplierManager, wantErr: exchange.ErrInvalidTransition,
		},
		{
			name: "unknown kind",
			kind: exchange.EntityKind("invoice"), from: "open", to: "paid",
			role: auth.RoleSupplierOwner, wantErr: exchange.ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Apply(tc.kind, tc.from, tc.to, tc.role, tc.payload)
			if tc.wantAllow {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEdgeOrderRoleBeforeConstraint(t *testing.T) {
	// An unauthorized role must see Forbidden, not the resolution constraint.
	err := Apply(exchange.EntityComplaint, "open", "resolved", auth.RoleSupplierSales, Payload{})
	if !errors.Is(err, exchange.ErrForbidden) {
		t.Fatalf("expected ErrForbidden before resolution check, got %v", err)
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(exchange.EntityLink); got != "pending" {
		t.Fatalf("link initial status: %s", got)
	}
	if got := InitialStatus(exchange.EntityOrder); got != "pending" {
		t.Fatalf("order initial status: %s", got)
	}
	if got := InitialStatus(exchange.EntityComplaint); got != "open" {
		t.Fatalf("complaint initial status: %s", got)
	}
	if got := InitialStatus(exchange.EntityKind("invoice")); got != "" {
		t.Fatalf("unknown kind initial status: %s", got)
	}
}
