package pg

import (
	"context"
	"database/sql"
	"errors"

	"sauda.org/internal/auth"
	"sauda.org/internal/exchange"
)

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *exchange.User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, role, is_active, created_at)
		 values($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.Active, u.CreatedAt,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*exchange.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, is_active, created_at from users where id=$1`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*exchange.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, role, is_active, created_at from users where email=$1`, email))
}

func scanUser(row *sql.Row) (*exchange.User, error) {
	var (
		u    exchange.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// Supplier store -----------------------------------------------------------

type supplierStore struct{ db *sql.DB }

func (s *supplierStore) Create(ctx context.Context, sup *exchange.Supplier) error {
	_, err := s.db.ExecContext(ctx,
		`insert into suppliers(id, user_id, company_name, is_active, created_at)
		 values($1,$2,$3,$4,$5)`,
		sup.ID, sup.UserID, sup.CompanyName, sup.Active, sup.CreatedAt,
	)
	return err
}

func (s *supplierStore) Find(ctx context.Context, id string) (*exchange.Supplier, error) {
	var sup exchange.Supplier
	err := s.db.QueryRowContext(ctx,
		`select id, user_id, company_name, is_active, created_at from suppliers where id=$1`, id,
	).Scan(&sup.ID, &sup.UserID, &sup.CompanyName, &sup.Active, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}

func (s *supplierStore) AddStaff(ctx context.Context, staff *exchange.SupplierStaff) error {
	_, err := s.db.ExecContext(ctx,
		`insert into supplier_staff(id, user_id, supplier_id, staff_role, created_at)
		 values($1,$2,$3,$4,$5)`,
		staff.ID, staff.UserID, staff.SupplierID, string(staff.StaffRole), staff.CreatedAt,
	)
	return err
}

func (s *supplierStore) SupplierForUser(ctx context.Context, userID string) (string, error) {
	var supplierID string
	err := s.db.QueryRowContext(ctx,
		`select supplier_id from supplier_staff where user_id=$1 limit 1`, userID,
	).Scan(&supplierID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return supplierID, nil
}

func (s *supplierStore) StaffRole(ctx context.Context, userID, supplierID string) (auth.Role, bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`select staff_role from supplier_staff where user_id=$1 and supplier_id=$2`, userID, supplierID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return auth.Role(role), true, nil
}

// Consumer store -----------------------------------------------------------

type consumerStore struct{ db *sql.DB }

func (s *consumerStore) Create(ctx context.Context, c *exchange.Consumer) error {
	_, err := s.db.ExecContext(ctx,
		`insert into consumers(id, user_id, organization_name, created_at)
		 values($1,$2,$3,$4)`,
		c.ID, c.UserID, c.OrganizationName, c.CreatedAt,
	)
	return err
}

func (s *consumerStore) Find(ctx context.Context, id string) (*exchange.Consumer, error) {
	return scanConsumer(s.db.QueryRowContext(ctx,
		`select id, user_id, organization_name, created_at from consumers where id=$1`, id))
}

func (s *consumerStore) FindByUser(ctx context.Context, userID string) (*exchange.Consumer, error) {
	return scanConsumer(s.db.QueryRowContext(ctx,
		`select id, user_id, organization_name, created_at from consumers where user_id=$1`, userID))
}

func scanConsumer(row *sql.Row) (*exchange.Consumer, error) {
	var c exchange.Consumer
	if err := row.Scan(&c.ID, &c.UserID, &c.OrganizationName, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
