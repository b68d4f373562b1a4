// Package pg implements the exchange store contracts on PostgreSQL. Status
// updates use compare-and-swap so racing transitions cannot double-apply.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

// Store is the PostgreSQL-backed implementation of exchange.Store. It also
// serves as the identity directory for the auth service.
type Store struct {
	db *sql.DB
}

var (
	_ exchange.Store = (*Store)(nil)
	_ auth.Directory = (*Store)(nil)
)

// Open connects to PostgreSQL with pool defaults tuned for the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for readiness probes.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users(context.Context) exchange.UserStore           { return &userStore{db: s.db} }
func (s *Store) Suppliers(context.Context) exchange.SupplierStore   { return &supplierStore{db: s.db} }
func (s *Store) Consumers(context.Context) exchange.ConsumerStore   { return &consumerStore{db: s.db} }
func (s *Store) Products(context.Context) exchange.ProductStore     { return &productStore{db: s.db} }
func (s *Store) Links(context.Context) exchange.LinkStore           { return &linkStore{db: s.db} }
func (s *Store) Orders(context.Context) exchange.OrderStore         { return &orderStore{db: s.db} }
func (s *Store) Complaints(context.Context) exchange.ComplaintStore { return &complaintStore{db: s.db} }

// AccountByID implements auth.Directory.
func (s *Store) AccountByID(ctx context.Context, id string) (auth.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, is_active from users where id=$1`, id))
}

// AccountByEmail implements auth.Directory.
func (s *Store) AccountByEmail(ctx context.Context, email string) (auth.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, is_active from users where email=$1`, email))
}

func (s *Store) scanAccount(row *sql.Row) (auth.Account, error) {
	var (
		account auth.Account
		role    string
	)
	if err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &role, &account.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Account{}, auth.ErrAccountNotFound
		}
		return auth.Account{}, err
	}
	account.Role = auth.Role(role)
	return account, nil
}
