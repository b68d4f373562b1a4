package exchange

import (
	"time"

	"sauda.org/internal/auth"
)

// EntityKind names the stateful business entities whose lifecycle the
// coordinator controls.
type EntityKind string

const (
	EntityLink      EntityKind = "link"
	EntityOrder     EntityKind = "order"
	EntityComplaint EntityKind = "complaint"
)

// LinkStatus enumerates link lifecycle states.
type LinkStatus string

const (
	LinkPending  LinkStatus = "pending"
	LinkAccepted LinkStatus = "accepted"
	LinkDenied   LinkStatus = "denied"
	LinkBlocked  LinkStatus = "blocked"
)

// OrderStatus enumerates order lifecycle states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderAccepted   OrderStatus = "accepted"
	OrderRejected   OrderStatus = "rejected"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

// ComplaintStatus enumerates complaint lifecycle states.
type ComplaintStatus string

const (
	ComplaintOpen      ComplaintStatus = "open"
	ComplaintEscalated ComplaintStatus = "escalated"
	ComplaintResolved  ComplaintStatus = "resolved"
)

// User is an authenticated account on the exchange.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Supplier is a selling party. Its owner is the user that registered it.
type Supplier struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CompanyName string    `json:"company_name"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplierStaff attaches a user to a supplier in a staff role.
type SupplierStaff struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SupplierID string    `json:"supplier_id"`
	StaffRole  auth.Role `json:"staff_role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Consumer is a buying organization.
type Consumer struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	OrganizationName string    `json:"organization_name"`
	CreatedAt        time.Time `json:"created_at"`
}

// Product is a supplier catalog entry. Monetary amounts are stored in tiyn
// (1/100 KZT) to keep arithmetic exact.
type Product struct {
	ID          string    `json:"id"`
	SupplierID  string    `json:"supplier_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceKZT    int64     `json:"price_kzt"`
	Currency    string    `json:"currency"`
	SKU         string    `json:"sku"`
	StockQty    int       `json:"stock_qty"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Link connects one consumer to one supplier. At most one link exists per
// (consumer, supplier) pair regardless of status.
type Link struct {
	ID         string     `json:"id"`
	ConsumerID string     `json:"consumer_id"`
	SupplierID string     `json:"supplier_id"`
	Status     LinkStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// OrderItem is a line item with the unit price snapshotted at order time.
type OrderItem struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	ProductID    string `json:"product_id"`
	Qty          int    `json:"qty"`
	UnitPriceKZT int64  `json:"unit_price_kzt"`
}

// Order belongs to one consumer and one supplier.
type Order struct {
	ID         string      `json:"id"`
	SupplierID string      `json:"supplier_id"`
	ConsumerID string      `json:"consumer_id"`
	Status     OrderStatus `json:"status"`
	TotalKZT   int64       `json:"total_kzt"`
	Items      []OrderItem `json:"items,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Complaint references an order and the supplier staff assigned to handle it.
type Complaint struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ConsumerID  string          `json:"consumer_id"`
	SalesRepID  string          `json:"sales_rep_id"`
	ManagerID   string          `json:"manager_id"`
	Status      ComplaintStatus `json:"status"`
	Description string          `json:"description"`
	Resolution  string          `json:"resolution,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
