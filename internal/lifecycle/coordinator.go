package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"sauda.org/internal/audit"
	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
	"sauda.org/internal/policy"
)

// TransitionRequest names the entity and the status it should move to.
type TransitionRequest struct {
	Kind            exchange.EntityKind
	ID              string
	RequestedStatus string
	// Resolution accompanies complaint-closing transitions.
	Resolution string
}

// Coordinator orchestrates "verify identity → evaluate policy → validate
// transition → apply" as one step. Policy denial short-circuits before the
// state machine is consulted, so an unauthorized actor never learns whether
// a transition would have been legal.
type Coordinator struct {
	identity *auth.Service
	svc      *exchange.Service
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(identity *auth.Service, svc *exchange.Service) (*Coordinator, error) {
	if identity == nil {
		return nil, errors.New("lifecycle: identity service is required")
	}
	if svc == nil {
		return nil, errors.New("lifecycle: exchange service is required")
	}
	return &Coordinator{identity: identity, svc: svc}, nil
}

// Transition resolves the bearer token and applies the requested status
// change. Failures map onto the error taxonomy: ErrUnauthenticated,
// ErrForbidden, ErrNotFound, ErrInvalidTransition, ErrMissingResolution.
func (c *Coordinator) Transition(ctx context.Context, bearerToken string, req TransitionRequest) (any, error) {
	actor, err := c.identity.ResolveActor(ctx, bearerToken)
	if err != nil {
		return nil, err
	}
	return c.TransitionAs(ctx, actor, req)
}

// TransitionAs applies the requested status change on behalf of an
// already-resolved actor.
func (c *Coordinator) TransitionAs(ctx context.Context, actor auth.Actor, req TransitionRequest) (any, error) {
	switch req.Kind {
	case exchange.EntityLink:
		return c.transitionLink(ctx, actor, req)
	case exchange.EntityOrder:
		return c.transitionOrder(ctx, actor, req)
	case exchange.EntityComplaint:
		return c.transitionComplaint(ctx, actor, req)
	}
	return nil, fmt.Errorf("%w: unknown entity kind %q", exchange.ErrInvalidInput, req.Kind)
}

func (c *Coordinator) transitionLink(ctx context.Context, actor auth.Actor, req TransitionRequest) (*exchange.Link, error) {
	store := c.svc.Store()
	link, err := store.Links(ctx).Find(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	facts, err := c.svc.LinkFacts(ctx, actor, link)
	if err != nil {
		return nil, err
	}
	if err := c.gate(ctx, actor, policy.ActionLinkTransition, facts,
		exchange.EntityLink, string(link.Status), req); err != nil {
		return nil, err
	}
	updated, err := store.Links(ctx).UpdateStatus(ctx, link.ID, link.Status, exchange.LinkStatus(req.RequestedStatus))
	if err != nil {
		return nil, err
	}
	c.logTransition(ctx, actor, exchange.EntityLink, link.ID, string(link.Status), req.RequestedStatus)
	return updated, nil
}

func (c *Coordinator) transitionOrder(ctx context.Context, actor auth.Actor, req TransitionRequest) (*exchange.Order, error) {
	store := c.svc.Store()
	order, err := store.Orders(ctx).Find(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	facts, err := c.svc.OrderFacts(ctx, actor, order)
	if err != nil {
		return nil, err
	}
	if err := c.gate(ctx, actor, policy.ActionOrderTransition, facts,
		exchange.EntityOrder, string(order.Status), req); err != nil {
		return nil, err
	}
	updated, err := store.Orders(ctx).UpdateStatus(ctx, order.ID, order.Status, exchange.OrderStatus(req.RequestedStatus))
	if err != nil {
		return nil, err
	}
	c.logTransition(ctx, actor, exchange.EntityOrder, order.ID, string(order.Status), req.RequestedStatus)
	return updated, nil
}

func (c *Coordinator) transitionComplaint(ctx context.Context, actor auth.Actor, req TransitionRequest) (*exchange.Complaint, error) {
	store := c.svc.Store()
	complaint, err := store.Complaints(ctx).Find(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	facts, err := c.svc.ComplaintFacts(ctx, actor, complaint)
	if err != nil {
		return nil, err
	}
	if err := c.gate(ctx, actor, policy.ActionComplaintTransition, facts,
		exchange.EntityComplaint, string(complaint.Status), req); err != nil {
		return nil, err
	}
	updated, err := store.Complaints(ctx).UpdateStatus(ctx, complaint.ID, complaint.Status,
		exchange.ComplaintStatus(req.RequestedStatus), req.Resolution)
	if err != nil {
		return nil, err
	}
	c.logTransition(ctx, actor, exchange.EntityComplaint, complaint.ID, string(complaint.Status), req.RequestedStatus)
	return updated, nil
}

// gate runs the two authorization layers in order: the coarse resource-level
// policy first, then the table lookup with its edge-specific role set.
func (c *Coordinator) gate(ctx context.Context, actor auth.Actor, action policy.Action, facts policy.Facts,
	kind exchange.EntityKind, current string, req TransitionRequest) error {
	if d := policy.Decide(actor, action, facts); d != nil {
		return fmt.Errorf("%w: %s", exchange.ErrForbidden, d.Reason)
	}
	return Apply(kind, current, req.RequestedStatus, actor.Role, Payload{Resolution: req.Resolution})
}

func (c *Coordinator) logTransition(ctx context.Context, actor auth.Actor, kind exchange.EntityKind, id, from, to string) {
	_ = audit.LogEvent(ctx, string(kind)+".status.changed", map[string]any{
		"entity_id": id,
		"from":      from,
		"to":        to,
		"actor_id":  actor.ID,
		"role":      string(actor.Role),
	})
}
