package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
)

const orderColumns = `id, customer_id::text, recipient_name, phone, address, coupon_code, discount_rate::text,
       subtotal, shipping_fee, discount_amount, final_total, status, note, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) PlaceFromCart(ctx context.Context, o domain.Order, cartID string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE carts
SET state = 'ordered', updated_at = now()
WHERE id = $1 AND state = 'active'
`, cartID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}

	err = tx.QueryRow(ctx, `
INSERT INTO orders (customer_id, recipient_name, phone, address, coupon_code, discount_rate,
                    subtotal, shipping_fee, discount_amount, final_total, status, note)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11, $12)
RETURNING id, created_at, updated_at
`,
		o.CustomerID,
		o.Shipping.RecipientName,
		o.Shipping.Phone,
		o.Shipping.Address,
		o.CouponCode,
		o.DiscountRate.String(),
		o.Totals.Subtotal,
		o.Totals.ShippingFee,
		o.Totals.DiscountAmount,
		o.Totals.FinalTotal,
		string(o.Status),
		o.Note,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		r.logger.Printf("order repo: insert customer_id=%s error=%v", o.CustomerID, err)
		return nil, err
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
INSERT INTO order_lines (order_id, position, product_id, sku, name, unit_price, quantity, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, o.ID, i, l.ProductID, l.SKU, l.Name, l.UnitPrice, l.Quantity, l.Total)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Printf("order repo: insert lines order_id=%d error=%v", o.ID, err)
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: placed id=%d cart_id=%s total=%d", o.ID, cartID, o.Totals.FinalTotal)
	return &o, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	const where = `
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR customer_id::text = $2)
`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, string(f.Status), f.CustomerID).Scan(&total); err != nil {
		r.logger.Printf("order repo: count status=%q error=%v", f.Status, err)
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = total
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
FROM orders`+where+`
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`, string(f.Status), f.CustomerID, limit, f.Offset)
	if err != nil {
		r.logger.Printf("order repo: list status=%q error=%v", f.Status, err)
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+`
FROM orders
WHERE id = $1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, note string) (*domain.Order, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $3,
    note = CASE WHEN $4 = '' THEN note ELSE $4 END,
    updated_at = now()
WHERE id = $1 AND status = $2
`, id, string(from), string(to), note)
	if err != nil {
		r.logger.Printf("order repo: update status id=%d error=%v", id, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}
	r.logger.Printf("order repo: status id=%d %s->%s", id, from, to)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}
	rows, err := r.pool.Query(ctx, `
SELECT order_id, product_id::text, sku, name, unit_price, quantity, total
FROM order_lines
WHERE order_id = ANY($1)
ORDER BY order_id, position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var l domain.OrderLine
		if err := rows.Scan(&orderID, &l.ProductID, &l.SKU, &l.Name, &l.UnitPrice, &l.Quantity, &l.Total); err != nil {
			return err
		}
		i, ok := index[orderID]
		if !ok {
			continue
		}
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var rate, status string
	if err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.Shipping.RecipientName,
		&o.Shipping.Phone,
		&o.Shipping.Address,
		&o.CouponCode,
		&rate,
		&o.Totals.Subtotal,
		&o.Totals.ShippingFee,
		&o.Totals.DiscountAmount,
		&o.Totals.FinalTotal,
		&status,
		&o.Note,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("order repo: discount rate %q: %w", rate, err)
	}
	o.DiscountRate = d
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
