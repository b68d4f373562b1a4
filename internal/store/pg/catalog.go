package pg

import (
	"context"
	"database/sql"
	"errors"

	"sauda.org/internal/exchange"
)

type productStore struct{ db *sql.DB }

func (s *productStore) Create(ctx context.Context, p *exchange.Product) error {
	_, err := s.db.ExecContext(ctx,
		`insert into products(id, supplier_id, name, description, price_kzt, currency, sku, stock_qty, is_active, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.SupplierID, p.Name, p.Description, p.PriceKZT, p.Currency, p.SKU, p.StockQty, p.Active, p.CreatedAt,
	)
	return err
}

func (s *productStore) Find(ctx context.Context, id string) (*exchange.Product, error) {
	var p exchange.Product
	err := s.db.QueryRowContext(ctx,
		`select id, supplier_id, name, description, price_kzt, currency, sku, stock_qty, is_active, created_at
		 from products where id=$1`, id,
	).Scan(&p.ID, &p.SupplierID, &p.Name, &p.Description, &p.PriceKZT, &p.Currency, &p.SKU, &p.StockQty, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, exchange.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *productStore) Update(ctx context.Context, p *exchange.Product) error {
	res, err := s.db.ExecContext(ctx,
		`update products set name=$2, description=$3, price_kzt=$4, sku=$5, stock_qty=$6, is_active=$7
		 where id=$1`,
		p.ID, p.Name, p.Description, p.PriceKZT, p.SKU, p.StockQty, p.Active,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return exchange.ErrNotFound
	}
	return nil
}

func (s *productStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return exchange.ErrNotFound
	}
	return nil
}

func (s *productStore) ListBySupplier(ctx context.Context, supplierID string, page exchange.Page) ([]*exchange.Product, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from products where supplier_id=$1`, supplierID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx,
		`select id, supplier_id, name, description, price_kzt, currency, sku, stock_qty, is_active, created_at
		 from products where supplier_id=$1 order by created_at desc limit $2 offset $3`,
		supplierID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*exchange.Product
	for rows.Next() {
		var p exchange.Product
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.Name, &p.Description, &p.PriceKZT, &p.Currency, &p.SKU, &p.StockQty, &p.Active, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		res = append(res, &p)
	}
	return res, total, rows.Err()
}
