// Package mem is an in-memory implementation of the exchange store
// contracts, used by tests and local development. It honors the same
// compare-and-swap semantics as the PostgreSQL store.
package mem

import (
	"context"
	"sort"
	"sync"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

// Store keeps everything in maps behind one mutex.
type Store struct {
	mu         sync.Mutex
	users      map[string]*exchange.User
	suppliers  map[string]*exchange.Supplier
	staff      map[string]*exchange.SupplierStaff
	consumers  map[string]*exchange.Consumer
	products   map[string]*exchange.Product
	links      map[string]*exchange.Link
	orders     map[string]*exchange.Order
	complaints map[string]*exchange.Complaint
}

var (
	_ exchange.Store = (*Store)(nil)
	_ auth.Directory = (*Store)(nil)
)

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*exchange.User),
		suppliers:  make(map[string]*exchange.Supplier),
		staff:      make(map[string]*exchange.SupplierStaff),
		consumers:  make(map[string]*exchange.Consumer),
		products:   make(map[string]*exchange.Product),
		links:      make(map[string]*exchange.Link),
		orders:     make(map[string]*exchange.Order),
		complaints: make(map[string]*exchange.Complaint),
	}
}

func (s *Store) Users(context.Context) exchange.UserStore           { return (*userStore)(s) }
func (s *Store) Suppliers(context.Context) exchange.SupplierStore   { return (*supplierStore)(s) }
func (s *Store) Consumers(context.Context) exchange.ConsumerStore   { return (*consumerStore)(s) }
func (s *Store) Products(context.Context) exchange.ProductStore     { return (*productStore)(s) }
func (s *Store) Links(context.Context) exchange.LinkStore           { return (*linkStore)(s) }
func (s *Store) Orders(context.Context) exchange.OrderStore         { return (*orderStore)(s) }
func (s *Store) Complaints(context.Context) exchange.ComplaintStore { return (*complaintStore)(s) }

// AccountByID implements auth.Directory.
func (s *Store) AccountByID(_ context.Context, id string) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return accountOf(u), nil
}

// AccountByEmail implements auth.Directory.
func (s *Store) AccountByEmail(_ context.Context, email string) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return accountOf(u), nil
		}
	}
	return auth.Account{}, auth.ErrAccountNotFound
}

// SetActive flips an account's active flag, for tests exercising
// deactivation.
func (s *Store) SetActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Active = active
	}
}

func accountOf(u *exchange.User) auth.Account {
	return auth.Account{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Active:       u.Active,
	}
}

func paginate[T any](items []*T, page exchange.Page) ([]*T, int) {
	total := len(items)
	offset := page.Offset()
	if offset >= total {
		return nil, total
	}
	end := offset + page.Size
	if page.Size <= 0 || end > total {
		end = total
	}
	return items[offset:end], total
}

// --- users ------------------------------------------------------------------

type userStore Store

func (s *userStore) Create(_ context.Context, u *exchange.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *userStore) Find(_ context.Context, id string) (*exchange.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*exchange.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, exchange.ErrNotFound
}

// --- suppliers --------------------------------------------------------------

type supplierStore Store

func (s *supplierStore) Create(_ context.Context, sup *exchange.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sup
	s.suppliers[sup.ID] = &cp
	return nil
}

func (s *supplierStore) Find(_ context.Context, id string) (*exchange.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *sup
	return &cp, nil
}

func (s *supplierStore) AddStaff(_ context.Context, staff *exchange.SupplierStaff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.staff {
		if existing.UserID == staff.UserID && existing.SupplierID == staff.SupplierID {
			return exchange.ErrAlreadyExists
		}
	}
	cp := *staff
	s.staff[staff.ID] = &cp
	return nil
}

func (s *supplierStore) SupplierForUser(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.staff {
		if st.UserID == userID {
			return st.SupplierID, nil
		}
	}
	return "", nil
}

func (s *supplierStore) StaffRole(_ context.Context, userID, supplierID string) (auth.Role, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.staff {
		if st.UserID == userID && st.SupplierID == supplierID {
			return st.StaffRole, true, nil
		}
	}
	return "", false, nil
}

// --- consumers --------------------------------------------------------------

type consumerStore Store

func (s *consumerStore) Create(_ context.Context, c *exchange.Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.consumers[c.ID] = &cp
	return nil
}

func (s *consumerStore) Find(_ context.Context, id string) (*exchange.Consumer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consumers[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *consumerStore) FindByUser(_ context.Context, userID string) (*exchange.Consumer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.consumers {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, exchange.ErrNotFound
}

// --- products ---------------------------------------------------------------

type productStore Store

func (s *productStore) Create(_ context.Context, p *exchange.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *productStore) Find(_ context.Context, id string) (*exchange.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *productStore) Update(_ context.Context, p *exchange.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return exchange.ErrNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *productStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return exchange.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *productStore) ListBySupplier(_ context.Context, supplierID string, page exchange.Page) ([]*exchange.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*exchange.Product
	for _, p := range s.products {
		if p.SupplierID == supplierID {
			cp := *p
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	items, total := paginate(res, page)
	return items, total, nil
}

// --- links ------------------------------------------------------------------

type linkStore Store

func (s *linkStore) Create(_ context.Context, l *exchange.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.links {
		if existing.ConsumerID == l.ConsumerID && existing.SupplierID == l.SupplierID {
			return exchange.ErrAlreadyExists
		}
	}
	cp := *l
	s.links[l.ID] = &cp
	return nil
}

func (s *linkStore) Find(_ context.Context, id string) (*exchange.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *linkStore) FindByPair(_ context.Context, consumerID, supplierID string) (*exchange.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.ConsumerID == consumerID && l.SupplierID == supplierID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, exchange.ErrNotFound
}

func (s *linkStore) ListByConsumer(_ context.Context, consumerID string, page exchange.Page) ([]*exchange.Link, int, error) {
	return s.list(func(l *exchange.Link) bool { return l.ConsumerID == consumerID }, page)
}

func (s *linkStore) ListBySupplier(_ context.Context, supplierID string, page exchange.Page) ([]*exchange.Link, int, error) {
	return s.list(func(l *exchange.Link) bool { return l.SupplierID == supplierID }, page)
}

func (s *linkStore) list(match func(*exchange.Link) bool, page exchange.Page) ([]*exchange.Link, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*exchange.Link
	for _, l := range s.links {
		if match(l) {
			cp := *l
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	items, total := paginate(res, page)
	return items, total, nil
}

func (s *linkStore) UpdateStatus(_ context.Context, id string, from, to exchange.LinkStatus) (*exchange.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok || l.Status != from {
		return nil, exchange.ErrInvalidTransition
	}
	l.Status = to
	cp := *l
	return &cp, nil
}

// --- orders -----------------------------------------------------------------

type orderStore Store

func (s *orderStore) Create(_ context.Context, o *exchange.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	cp.Items = append([]exchange.OrderItem(nil), o.Items...)
	s.orders[o.ID] = &cp
	return nil
}

func (s *orderStore) Find(_ context.Context, id string) (*exchange.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *o
	cp.Items = append([]exchange.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (s *orderStore) ListByConsumer(_ context.Context, consumerID string, page exchange.Page) ([]*exchange.Order, int, error) {
	return s.list(func(o *exchange.Order) bool { return o.ConsumerID == consumerID }, page)
}

func (s *orderStore) ListBySupplier(_ context.Context, supplierID string, page exchange.Page) ([]*exchange.Order, int, error) {
	return s.list(func(o *exchange.Order) bool { return o.SupplierID == supplierID }, page)
}

func (s *orderStore) list(match func(*exchange.Order) bool, page exchange.Page) ([]*exchange.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*exchange.Order
	for _, o := range s.orders {
		if match(o) {
			cp := *o
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	items, total := paginate(res, page)
	return items, total, nil
}

func (s *orderStore) UpdateStatus(_ context.Context, id string, from, to exchange.OrderStatus) (*exchange.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return nil, exchange.ErrInvalidTransition
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

// --- complaints -------------------------------------------------------------

type complaintStore Store

func (s *complaintStore) Create(_ context.Context, c *exchange.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.complaints[c.ID] = &cp
	return nil
}

func (s *complaintStore) Find(_ context.Context, id string) (*exchange.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, exchange.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *complaintStore) ListByConsumer(_ context.Context, consumerID string, page exchange.Page) ([]*exchange.Complaint, int, error) {
	return s.list(func(c *exchange.Complaint) bool { return c.ConsumerID == consumerID }, page)
}

func (s *complaintStore) ListByAssignee(_ context.Context, userID string, page exchange.Page) ([]*exchange.Complaint, int, error) {
	return s.list(func(c *exchange.Complaint) bool {
		return c.SalesRepID == userID || c.ManagerID == userID
	}, page)
}

func (s *complaintStore) list(match func(*exchange.Complaint) bool, page exchange.Page) ([]*exchange.Complaint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*exchange.Complaint
	for _, c := range s.complaints {
		if match(c) {
			cp := *c
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	items, total := paginate(res, page)
	return items, total, nil
}

func (s *complaintStore) UpdateStatus(_ context.Context, id string, from, to exchange.ComplaintStatus, resolution string) (*exchange.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok || c.Status != from {
		return nil, exchange.ErrInvalidTransition
	}
	c.Status = to
	if resolution != "" {
		c.Resolution = resolution
	}
	cp := *c
	return &cp, nil
}
