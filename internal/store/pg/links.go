package pg

import (
	"context"
	"database/sql"
	"errors"

	"sauda.org/internal/exchange"
)

type linkStore struct{ db *sql.DB }

const linkColumns = `id, consumer_id, supplier_id, status, created_at, updated_at`

func (s *linkStore) Create(ctx context.Context, l *exchange.Link) error {
	_, err := s.db.ExecContext(ctx,
		`insert into links(id, consumer_id, supplier_id, status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6)`,
		l.ID, l.ConsumerID, l.SupplierID, string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (s *linkStore) Find(ctx context.Context, id string) (*exchange.Link, error) {
	return scanLink(s.db.QueryRowContext(ctx,
		`select `+linkColumns+` from links where id=$1`, id))
}

func (s *linkStore) FindByPair(ctx context.Context, consumerID, supplierID string) (*exchange.Link, error) {
	return scanLink(s.db.QueryRowContext(ctx,
		`select `+linkColumns+` from links where consumer_id=$1 and supplier_id=$2`,
		consumerID, supplierID))
}

func (s *linkStore) ListByConsumer(ctx context.Context, consumerID string, page exchange.Page) ([]*exchange.Link, int, error) {
	return s.list(ctx, `consumer_id`, consumerID, page)
}

func (s *linkStore) ListBySupplier(ctx context.Context, supplierID string, page exchange.Page) ([]*exchange.Link, int, error) {
	return s.list(ctx, `supplier_id`, supplierID, page)
}

func (s *linkStore) list(ctx context.Context, column, value string, page exchange.Page) ([]*exchange.Link, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from links where `+column+`=$1`, value,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+linkColumns+` from links where `+column+`=$1 order by created_at desc limit $2 offset $3`,
		value, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*exchange.Link
	for rows.Next() {
		var (
			l      exchange.Link
			status string
		)
		if err := rows.Scan(&l.ID, &l.ConsumerID, &l.SupplierID, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		l.Status = exchange.LinkStatus(status)
		res = append(res, &l)
	}
	return res, total, rows.Err()
}

// UpdateStatus swaps from→to in one statement. Losing a race against a
// concurrent transition surfaces as ErrInvalidTransition.
func (s *linkStore) UpdateStatus(ctx context.Context, id string, from, to exchange.LinkStatus) (*exchange.Link, error) {
	l, err := scanLink(s.db.QueryRowContext(ctx,
		`update links set status=$3, updated_at=now() where id=$1 and status=$2 returning `+linkColumns,
		id, string(from), string(to)))
	if errors.Is(err, exchange.ErrNotFound) {
		return nil, exchange.ErrInvalidTransition
	}
	return l, err
}

func scanLink(row *sql.Row) (*exchange.Link, error) {
	var (
		l      exchange.Link
		status string
	)
	if err := row.Scan(&l.ID, &l.ConsumerID, &l.SupplierID, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	l.Status = exchange.LinkStatus(status)
	return &l, nil
}
