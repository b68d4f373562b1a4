package pg

import (
	"context"
	"database/sql"
	"errors"

	"sauda.org/internal/exchange"
)

type complaintStore struct{ db *sql.DB }

const complaintColumns = `id, order_id, consumer_id, sales_rep_id, manager_id, status, description, coalesce(resolution, ''), created_at`

func (s *complaintStore) Create(ctx context.Context, c *exchange.Complaint) error {
	_, err := s.db.ExecContext(ctx,
		`insert into complaints(id, order_id, consumer_id, sales_rep_id, manager_id, status, description, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.OrderID, c.ConsumerID, c.SalesRepID, c.ManagerID, string(c.Status), c.Description, c.CreatedAt,
	)
	return err
}

func (s *complaintStore) Find(ctx context.Context, id string) (*exchange.Complaint, error) {
	return scanComplaint(s.db.QueryRowContext(ctx,
		`select `+complaintColumns+` from complaints where id=$1`, id))
}

func (s *complaintStore) ListByConsumer(ctx context.Context, consumerID string, page exchange.Page) ([]*exchange.Complaint, int, error) {
	return s.list(ctx,
		`select count(*) from complaints where consumer_id=$1`,
		`select `+complaintColumns+` from complaints where consumer_id=$1 order by created_at desc limit $2 offset $3`,
		consumerID, page)
}

func (s *complaintStore) ListByAssignee(ctx context.Context, userID string, page exchange.Page) ([]*exchange.Complaint, int, error) {
	return s.list(ctx,
		`select count(*) from complaints where sales_rep_id=$1 or manager_id=$1`,
		`select `+complaintColumns+` from complaints where sales_rep_id=$1 or manager_id=$1 order by created_at desc limit $2 offset $3`,
		userID, page)
}

func (s *complaintStore) list(ctx context.Context, countSQL, listSQL, value string, page exchange.Page) ([]*exchange.Complaint, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, value).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, listSQL, value, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*exchange.Complaint
	for rows.Next() {
		var (
			c      exchange.Complaint
			status string
		)
		if err := rows.Scan(&c.ID, &c.OrderID, &c.ConsumerID, &c.SalesRepID, &c.ManagerID, &status, &c.Description, &c.Resolution, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		c.Status = exchange.ComplaintStatus(status)
		res = append(res, &c)
	}
	return res, total, rows.Err()
}

// UpdateStatus swaps from→to and persists the resolution when one is given.
// Losing a race against a concurrent transition surfaces as
// ErrInvalidTransition.
func (s *complaintStore) UpdateStatus(ctx context.Context, id string, from, to exchange.ComplaintStatus, resolution string) (*exchange.Complaint, error) {
	c, err := scanComplaint(s.db.QueryRowContext(ctx,
		`update complaints set status=$3, resolution=nullif($4, '') where id=$1 and status=$2 returning `+complaintColumns,
		id, string(from), string(to), resolution))
	if errors.Is(err, exchange.ErrNotFound) {
		return nil, exchange.ErrInvalidTransition
	}
	return c, err
}

func scanComplaint(row *sql.Row) (*exchange.Complaint, error) {
	var (
		c      exchange.Complaint
		status string
	)
	if err := row.Scan(&c.ID, &c.OrderID, &c.ConsumerID, &c.SalesRepID, &c.ManagerID, &status, &c.Description, &c.Resolution, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	c.Status = exchange.ComplaintStatus(status)
	return &c, nil
}
