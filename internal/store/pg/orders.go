package pg

import (
	"context"
	"database/sql"
	"errors"

	"sauda.org/internal/exchange"
)

type orderStore struct{ db *sql.DB }

const orderColumns = `id, supplier_id, consumer_id, status, total_kzt, created_at`

// Create inserts the order and its items in a single transaction.
func (s *orderStore) Create(ctx context.Context, o *exchange.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`insert into orders(id, supplier_id, consumer_id, status, total_kzt, created_at)
		 values($1,$2,$3,$4,$5,$6)`,
		o.ID, o.SupplierID, o.ConsumerID, string(o.Status), o.TotalKZT, o.CreatedAt,
	); err != nil {
		return err
	}
	for i := range o.Items {
		item := &o.Items[i]
		if _, err := tx.ExecContext(ctx,
			`insert into order_items(id, order_id, product_id, qty, unit_price_kzt)
			 values($1,$2,$3,$4,$5)`,
			item.ID, item.OrderID, item.ProductID, item.Qty, item.UnitPriceKZT,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *orderStore) Find(ctx context.Context, id string) (*exchange.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx,
		`select `+orderColumns+` from orders where id=$1`, id))
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *orderStore) items(ctx context.Context, orderID string) ([]exchange.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, order_id, product_id, qty, unit_price_kzt from order_items where order_id=$1 order by id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []exchange.OrderItem
	for rows.Next() {
		var item exchange.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Qty, &item.UnitPriceKZT); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *orderStore) ListByConsumer(ctx context.Context, consumerID string, page exchange.Page) ([]*exchange.Order, int, error) {
	return s.list(ctx, `consumer_id`, consumerID, page)
}

func (s *orderStore) ListBySupplier(ctx context.Context, supplierID string, page exchange.Page) ([]*exchange.Order, int, error) {
	return s.list(ctx, `supplier_id`, supplierID, page)
}

// list returns orders without items. Line items are loaded on Find only.
func (s *orderStore) list(ctx context.Context, column, value string, page exchange.Page) ([]*exchange.Order, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from orders where `+column+`=$1`, value,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+orderColumns+` from orders where `+column+`=$1 order by created_at desc limit $2 offset $3`,
		value, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*exchange.Order
	for rows.Next() {
		var (
			o      exchange.Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.SupplierID, &o.ConsumerID, &status, &o.TotalKZT, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		o.Status = exchange.OrderStatus(status)
		res = append(res, &o)
	}
	return res, total, rows.Err()
}

func (s *orderStore) UpdateStatus(ctx context.Context, id string, from, to exchange.OrderStatus) (*exchange.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx,
		`update orders set status=$3 where id=$1 and status=$2 returning `+orderColumns,
		id, string(from), string(to)))
	if errors.Is(err, exchange.ErrNotFound) {
		return nil, exchange.ErrInvalidTransition
	}
	return o, err
}

func scanOrder(row *sql.Row) (*exchange.Order, error) {
	var (
		o      exchange.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.SupplierID, &o.ConsumerID, &status, &o.TotalKZT, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	o.Status = exchange.OrderStatus(status)
	return &o, nil
}
