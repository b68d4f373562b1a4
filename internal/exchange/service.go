package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sauda.org/internal/auth"
	"sauda.org/internal/ids"
	"sauda.org/internal/policy"
)

// Service implements the non-lifecycle operations of the exchange: account
// registration, link/order/complaint creation, catalog management and views.
// Status changes are out of its reach; those go through the lifecycle
// coordinator.
type Service struct {
	store  Store
	hasher auth.PasswordHasher
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the exchange service.
func NewService(store Store, hasher auth.PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("exchange: store is required")
	}
	svc := &Service{store: store, hasher: hasher, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Store exposes the underlying store to the lifecycle coordinator.
func (s *Service) Store() Store { return s.store }

func forbidden(d *policy.Denial) error {
	// Callers get a uniform Forbidden regardless of which predicate failed;
	// the reason stays available for logs and tests via the wrapped message.
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

// SignupInput carries account registration parameters. Password policy is
// validated at the request layer before it reaches the core.
type SignupInput struct {
	Email    string
	Password string
	Role     auth.Role
	// OrganizationName names the consumer organization or supplier company,
	// depending on the role.
	OrganizationName string
}

// RegisterUser creates an account and, for consumer and supplier_owner
// roles, its business profile. Admin accounts are provisioned out of band.
func (s *Service) RegisterUser(ctx context.Context, in SignupInput) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if !in.Role.Valid() || in.Role == auth.RoleAdmin {
		return nil, fmt.Errorf("%w: unsupported signup role %q", ErrInvalidInput, in.Role)
	}

	if _, err := s.store.Users(ctx).FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.OrganizationName)
	switch in.Role {
	case auth.RoleConsumer:
		consumer := &Consumer{
			ID:               ids.New(),
			UserID:           user.ID,
			OrganizationName: name,
			CreatedAt:        user.CreatedAt,
		}
		if err := s.store.Consumers(ctx).Create(ctx, consumer); err != nil {
			return nil, err
		}
	case auth.RoleSupplierOwner:
		supplier := &Supplier{
			ID:          ids.New(),
			UserID:      user.ID,
			CompanyName: name,
			Active:      true,
			CreatedAt:   user.CreatedAt,
		}
		if err := s.store.Suppliers(ctx).Create(ctx, supplier); err != nil {
			return nil, err
		}
		staff := &SupplierStaff{
			ID:         ids.New(),
			UserID:     user.ID,
			SupplierID: supplier.ID,
			StaffRole:  auth.RoleSupplierOwner,
			CreatedAt:  user.CreatedAt,
		}
		if err := s.store.Suppliers(ctx).AddStaff(ctx, staff); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// AddStaff puts a user on the actor's supplier roster. Only the supplier
// owner manages the roster.
func (s *Service) AddStaff(ctx context.Context, actor auth.Actor, userID string, staffRole auth.Role) (*SupplierStaff, error) {
	if actor.Role != auth.RoleSupplierOwner {
		return nil, forbidden(&policy.Denial{Reason: "only the supplier owner manages staff"})
	}
	if staffRole != auth.RoleSupplierManager && staffRole != auth.RoleSupplierSales {
		return nil, fmt.Errorf("%w: unsupported staff role %q", ErrInvalidInput, staffRole)
	}
	supplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplier profile", ErrNotFound)
	}
	member, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != staffRole {
		return nil, fmt.Errorf("%w: user role %s does not match staff role %s", ErrInvalidInput, member.Role, staffRole)
	}
	staff := &SupplierStaff{
		ID:         ids.New(),
		UserID:     member.ID,
		SupplierID: supplierID,
		StaffRole:  staffRole,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Suppliers(ctx).AddStaff(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

// --- Links ------------------------------------------------------------------

// CreateLink opens a pending link request from the actor's consumer
// organization to the supplier. At most one link exists per pair.
func (s *Service) CreateLink(ctx context.Context, actor auth.Actor, supplierID string) (*Link, error) {
	if d := policy.Decide(actor, policy.ActionLinkCreate, policy.Facts{}); d != nil {
		return nil, forbidden(d)
	}
	consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Suppliers(ctx).Find(ctx, supplierID); err != nil {
		return nil, err
	}
	existing, err := s.store.Links(ctx).FindByPair(ctx, consumer.ID, supplierID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: link for this supplier", ErrAlreadyExists)
	}
	now := s.now().UTC()
	link := &Link{
		ID:         ids.New(),
		ConsumerID: consumer.ID,
		SupplierID: supplierID,
		Status:     LinkPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Links(ctx).Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// GetLink loads a link the actor participates in. Existence of other
// parties' links is sensitive, so denials surface as Forbidden.
func (s *Service) GetLink(ctx context.Context, actor auth.Actor, id string) (*Link, error) {
	link, err := s.store.Links(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	facts, err := s.LinkFacts(ctx, actor, link)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionLinkView, facts); d != nil {
		return nil, forbidden(d)
	}
	return link, nil
}

// ListLinks returns the links visible to the actor: the consumer's own, or
// the roster supplier's incoming ones.
func (s *Service) ListLinks(ctx context.Context, actor auth.Actor, page Page) ([]*Link, int, error) {
	switch {
	case actor.Role == auth.RoleConsumer:
		consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		return s.store.Links(ctx).ListByConsumer(ctx, consumer.ID, page)
	case actor.Role.SupplierSide():
		supplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if supplierID == "" {
			return nil, 0, fmt.Errorf("%w: supplier profile", ErrNotFound)
		}
		return s.store.Links(ctx).ListBySupplier(ctx, supplierID, page)
	default:
		return nil, 0, forbidden(&policy.Denial{Reason: "role has no link listing"})
	}
}

// --- Orders -----------------------------------------------------------------

// OrderItemInput is one requested line item.
type OrderItemInput struct {
	ProductID string
	Qty       int
}

// CreateOrder places a pending order with the supplier. The caller must hold
// an accepted link; unit prices are snapshotted from the catalog at order
// time.
func (s *Service) CreateOrder(ctx context.Context, actor auth.Actor, supplierID string, items []OrderItemInput) (*Order, error) {
	consumer, err := s.consumerForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Suppliers(ctx).Find(ctx, supplierID); err != nil {
		return nil, err
	}
	accepted, err := s.hasAcceptedLink(ctx, consumer, supplierID)
	if err != nil {
		return nil, err
	}
	facts := policy.Facts{SupplierID: supplierID, HasAcceptedLink: accepted}
	if d := policy.Decide(actor, policy.ActionOrderCreate, facts); d != nil {
		return nil, forbidden(d)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrInvalidInput)
	}

	orderID := ids.New()
	var total int64
	lines := make([]OrderItem, 0, len(items))
	for _, item := range items {
		if item.Qty <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", ErrInvalidInput, item.ProductID)
		}
		product, err := s.store.Products(ctx).Find(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.SupplierID != supplierID {
			return nil, fmt.Errorf("%w: product %s does not belong to supplier %s", ErrInvalidInput, product.ID, supplierID)
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: product %s is not active", ErrInvalidInput, product.ID)
		}
		total += product.PriceKZT * int64(item.Qty)
		lines = append(lines, OrderItem{
			ID:           ids.New(),
			OrderID:      orderID,
			ProductID:    product.ID,
			Qty:          item.Qty,
			UnitPriceKZT: product.PriceKZT,
		})
	}

	order := &Order{
		ID:         orderID,
		SupplierID: supplierID,
		ConsumerID: consumer.ID,
		Status:     OrderPending,
		TotalKZT:   total,
		Items:      lines,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.Orders(ctx).Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder loads an order for a participant.
func (s *Service) GetOrder(ctx context.Context, actor auth.Actor, id string) (*Order, error) {
	order, err := s.store.Orders(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	facts, err := s.OrderFacts(ctx, actor, order)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionOrderView, facts); d != nil {
		return nil, forbidden(d)
	}
	return order, nil
}

// ListOrders returns the orders visible to the actor.
func (s *Service) ListOrders(ctx context.Context, actor auth.Actor, page Page) ([]*Order, int, error) {
	switch {
	case actor.Role == auth.RoleConsumer:
		consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		return s.store.Orders(ctx).ListByConsumer(ctx, consumer.ID, page)
	case actor.Role.SupplierSide():
		supplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if supplierID == "" {
			return nil, 0, fmt.Errorf("%w: supplier profile", ErrNotFound)
		}
		return s.store.Orders(ctx).ListBySupplier(ctx, supplierID, page)
	default:
		return nil, 0, forbidden(&policy.Denial{Reason: "role has no order listing"})
	}
}

// --- Complaints -------------------------------------------------------------

// ComplaintInput carries complaint creation parameters.
type ComplaintInput struct {
	OrderID     string
	SalesRepID  string
	ManagerID   string
	Description string
}

// CreateComplaint opens a complaint about the actor's own order, assigning a
// sales rep and a manager from the order's supplier.
func (s *Service) CreateComplaint(ctx context.Context, actor auth.Actor, in ComplaintInput) (*Complaint, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	order, err := s.store.Orders(ctx).Find(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	consumer, err := s.consumerForActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	facts := policy.Facts{
		SupplierID:         order.SupplierID,
		IsResourceConsumer: order.ConsumerID == consumer.ID,
	}
	if d := policy.Decide(actor, policy.ActionComplaintCreate, facts); d != nil {
		return nil, forbidden(d)
	}

	suppliers := s.store.Suppliers(ctx)
	if _, ok, err := suppliers.StaffRole(ctx, in.SalesRepID, order.SupplierID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: sales rep is not staff of the order's supplier", ErrInvalidInput)
	}
	managerRole, ok, err := suppliers.StaffRole(ctx, in.ManagerID, order.SupplierID)
	if err != nil {
		return nil, err
	}
	if !ok || (managerRole != auth.RoleSupplierManager && managerRole != auth.RoleSupplierOwner) {
		return nil, fmt.Errorf("%w: manager must hold a manager or owner role at the order's supplier", ErrInvalidInput)
	}

	complaint := &Complaint{
		ID:          ids.New(),
		OrderID:     order.ID,
		ConsumerID:  consumer.ID,
		SalesRepID:  in.SalesRepID,
		ManagerID:   in.ManagerID,
		Status:      ComplaintOpen,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Complaints(ctx).Create(ctx, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// GetComplaint loads a complaint for one of its participants.
func (s *Service) GetComplaint(ctx context.Context, actor auth.Actor, id string) (*Complaint, error) {
	complaint, err := s.store.Complaints(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	facts, err := s.ComplaintFacts(ctx, actor, complaint)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionComplaintView, facts); d != nil {
		return nil, forbidden(d)
	}
	return complaint, nil
}

// ListComplaints returns complaints the actor participates in.
func (s *Service) ListComplaints(ctx context.Context, actor auth.Actor, page Page) ([]*Complaint, int, error) {
	switch {
	case actor.Role == auth.RoleConsumer:
		consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		return s.store.Complaints(ctx).ListByConsumer(ctx, consumer.ID, page)
	case actor.Role.SupplierSide():
		return s.store.Complaints(ctx).ListByAssignee(ctx, actor.ID, page)
	default:
		return nil, 0, forbidden(&policy.Denial{Reason: "role has no complaint listing"})
	}
}

// --- Products ---------------------------------------------------------------

// ProductInput carries catalog entry parameters.
type ProductInput struct {
	Name        string
	Description string
	PriceKZT    int64
	SKU         string
	StockQty    int
	Active      bool
}

// CreateProduct adds a catalog entry to the actor's own supplier.
func (s *Service) CreateProduct(ctx context.Context, actor auth.Actor, in ProductInput) (*Product, error) {
	supplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	facts := policy.Facts{SupplierID: supplierID, ActorSupplierID: supplierID}
	if d := policy.Decide(actor, policy.ActionProductManage, facts); d != nil {
		return nil, forbidden(d)
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" {
		return nil, fmt.Errorf("%w: name and sku are required", ErrInvalidInput)
	}
	if in.PriceKZT < 0 || in.StockQty < 0 {
		return nil, fmt.Errorf("%w: price and stock must not be negative", ErrInvalidInput)
	}
	product := &Product{
		ID:          ids.New(),
		SupplierID:  supplierID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceKZT:    in.PriceKZT,
		Currency:    "KZT",
		SKU:         strings.TrimSpace(in.SKU),
		StockQty:    in.StockQty,
		Active:      in.Active,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Products(ctx).Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits a catalog entry of the actor's supplier.
func (s *Service) UpdateProduct(ctx context.Context, actor auth.Actor, id string, in ProductInput) (*Product, error) {
	product, err := s.store.Products(ctx).Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireProductManage(ctx, actor, product.SupplierID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" {
		return nil, fmt.Errorf("%w: name and sku are required", ErrInvalidInput)
	}
	if in.PriceKZT < 0 || in.StockQty < 0 {
		return nil, fmt.Errorf("%w: price and stock must not be negative", ErrInvalidInput)
	}
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.PriceKZT = in.PriceKZT
	product.SKU = strings.TrimSpace(in.SKU)
	product.StockQty = in.StockQty
	product.Active = in.Active
	if err := s.store.Products(ctx).Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a catalog entry of the actor's supplier.
func (s *Service) DeleteProduct(ctx context.Context, actor auth.Actor, id string) error {
	product, err := s.store.Products(ctx).Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireProductManage(ctx, actor, product.SupplierID); err != nil {
		return err
	}
	return s.store.Products(ctx).Delete(ctx, id)
}

// ListProducts returns a supplier's catalog to staff or linked consumers.
func (s *Service) ListProducts(ctx context.Context, actor auth.Actor, supplierID string, page Page) ([]*Product, int, error) {
	facts := policy.Facts{SupplierID: supplierID}
	if actor.Role == auth.RoleConsumer {
		consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		accepted, err := s.hasAcceptedLink(ctx, consumer, supplierID)
		if err != nil {
			return nil, 0, err
		}
		facts.HasAcceptedLink = accepted
	} else {
		actorSupplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		facts.ActorSupplierID = actorSupplierID
	}
	if d := policy.Decide(actor, policy.ActionProductView, facts); d != nil {
		return nil, 0, forbidden(d)
	}
	return s.store.Products(ctx).ListBySupplier(ctx, supplierID, page)
}

func (s *Service) requireProductManage(ctx context.Context, actor auth.Actor, supplierID string) error {
	actorSupplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	facts := policy.Facts{SupplierID: supplierID, ActorSupplierID: actorSupplierID}
	if d := policy.Decide(actor, policy.ActionProductManage, facts); d != nil {
		return forbidden(d)
	}
	return nil
}

// --- Relationship facts -----------------------------------------------------

// LinkFacts derives the actor's relationship to a link.
func (s *Service) LinkFacts(ctx context.Context, actor auth.Actor, link *Link) (policy.Facts, error) {
	facts := policy.Facts{SupplierID: link.SupplierID}
	if err := s.fillActorAffiliations(ctx, actor, &facts); err != nil {
		return policy.Facts{}, err
	}
	if consumer := s.consumerOrNil(ctx, actor); consumer != nil {
		facts.IsResourceConsumer = consumer.ID == link.ConsumerID
	}
	return facts, nil
}

// OrderFacts derives the actor's relationship to an order.
func (s *Service) OrderFacts(ctx context.Context, actor auth.Actor, order *Order) (policy.Facts, error) {
	facts := policy.Facts{SupplierID: order.SupplierID}
	if err := s.fillActorAffiliations(ctx, actor, &facts); err != nil {
		return policy.Facts{}, err
	}
	if consumer := s.consumerOrNil(ctx, actor); consumer != nil {
		facts.IsResourceConsumer = consumer.ID == order.ConsumerID
	}
	return facts, nil
}

// ComplaintFacts derives the actor's relationship to a complaint.
func (s *Service) ComplaintFacts(ctx context.Context, actor auth.Actor, complaint *Complaint) (policy.Facts, error) {
	facts := policy.Facts{
		IsAssignedSalesRep: complaint.SalesRepID == actor.ID,
		IsAssignedManager:  complaint.ManagerID == actor.ID,
	}
	if err := s.fillActorAffiliations(ctx, actor, &facts); err != nil {
		return policy.Facts{}, err
	}
	if consumer := s.consumerOrNil(ctx, actor); consumer != nil {
		facts.IsResourceConsumer = consumer.ID == complaint.ConsumerID
	}
	return facts, nil
}

func (s *Service) fillActorAffiliations(ctx context.Context, actor auth.Actor, facts *policy.Facts) error {
	if !actor.Role.SupplierSide() {
		return nil
	}
	supplierID, err := s.store.Suppliers(ctx).SupplierForUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	facts.ActorSupplierID = supplierID
	return nil
}

func (s *Service) consumerOrNil(ctx context.Context, actor auth.Actor) *Consumer {
	if actor.Role != auth.RoleConsumer {
		return nil
	}
	consumer, err := s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
	if err != nil {
		return nil
	}
	return consumer
}

func (s *Service) consumerForActor(ctx context.Context, actor auth.Actor) (*Consumer, error) {
	if actor.Role != auth.RoleConsumer {
		return nil, forbidden(&policy.Denial{Reason: fmt.Sprintf("role %s is not permitted", actor.Role)})
	}
	return s.store.Consumers(ctx).FindByUser(ctx, actor.ID)
}

// hasAcceptedLink reports whether the consumer holds an accepted link with
// the supplier.
func (s *Service) hasAcceptedLink(ctx context.Context, consumer *Consumer, supplierID string) (bool, error) {
	if consumer == nil {
		return false, nil
	}
	link, err := s.store.Links(ctx).FindByPair(ctx, consumer.ID, supplierID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return link.Status == LinkAccepted, nil
}
