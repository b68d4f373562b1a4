package exchange

import (
	"context"

	"sauda.org/internal/auth"
)

// Page bounds list queries.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Store describes persistence operations required by the exchange core.
// Implementations must keep every status write behind the compare-and-swap
// contract of the *Status methods: the status field is never written through
// any other path.
type Store interface {
	Users(ctx context.Context) UserStore
	Suppliers(ctx context.Context) SupplierStore
	Consumers(ctx context.Context) ConsumerStore
	Products(ctx context.Context) ProductStore
	Links(ctx context.Context) LinkStore
	Orders(ctx context.Context) OrderStore
	Complaints(ctx context.Context) ComplaintStore
}

// UserStore manages accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SupplierStore manages suppliers and their staff rosters.
type SupplierStore interface {
	Create(ctx context.Context, s *Supplier) error
	Find(ctx context.Context, id string) (*Supplier, error)
	AddStaff(ctx context.Context, staff *SupplierStaff) error
	// SupplierForUser returns the id of the supplier the user owns or works
	// for, or "" when the user has no supplier affiliation.
	SupplierForUser(ctx context.Context, userID string) (string, error)
	// StaffRole returns the role the user holds at the supplier, reporting
	// ok=false when the user is not on the roster. Owners are on the roster
	// with RoleSupplierOwner.
	StaffRole(ctx context.Context, userID, supplierID string) (auth.Role, bool, error)
}

// ConsumerStore manages consumer profiles.
type ConsumerStore interface {
	Create(ctx context.Context, c *Consumer) error
	Find(ctx context.Context, id string) (*Consumer, error)
	FindByUser(ctx context.Context, userID string) (*Consumer, error)
}

// ProductStore manages supplier catalogs.
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Find(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	ListBySupplier(ctx context.Context, supplierID string, page Page) ([]*Product, int, error)
}

// LinkStore manages consumer-supplier links.
type LinkStore interface {
	Create(ctx context.Context, l *Link) error
	Find(ctx context.Context, id string) (*Link, error)
	FindByPair(ctx context.Context, consumerID, supplierID string) (*Link, error)
	ListByConsumer(ctx context.Context, consumerID string, page Page) ([]*Link, int, error)
	ListBySupplier(ctx context.Context, supplierID string, page Page) ([]*Link, int, error)
	// UpdateStatus applies from→to atomically: the row is updated only when
	// its current status still equals from. ErrInvalidTransition is returned
	// when another request already moved the link on.
	UpdateStatus(ctx context.Context, id string, from, to LinkStatus) (*Link, error)
}

// OrderStore manages orders together with their line items.
type OrderStore interface {
	Create(ctx context.Context, o *Order) error
	Find(ctx context.Context, id string) (*Order, error)
	ListByConsumer(ctx context.Context, consumerID string, page Page) ([]*Order, int, error)
	ListBySupplier(ctx context.Context, supplierID string, page Page) ([]*Order, int, error)
	// UpdateStatus has the same compare-and-swap contract as LinkStore.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) (*Order, error)
}

// ComplaintStore manages complaints.
type ComplaintStore interface {
	Create(ctx context.Context, c *Complaint) error
	Find(ctx context.Context, id string) (*Complaint, error)
	ListByConsumer(ctx context.Context, consumerID string, page Page) ([]*Complaint, int, error)
	ListByAssignee(ctx context.Context, userID string, page Page) ([]*Complaint, int, error)
	// UpdateStatus has the same compare-and-swap contract as LinkStore.
	// A non-empty resolution is persisted together with the status change.
	UpdateStatus(ctx context.Context, id string, from, to ComplaintStatus, resolution string) (*Complaint, error)
}
