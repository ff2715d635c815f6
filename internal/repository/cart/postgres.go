package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"storefront/internal/domain"
)

const cartColumns = `id::text, customer_id::text, anonymous_id, state, coupon_code, coupon_applied, coupon_rate::text, created_at, updated_at`

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

func (r *postgresRepo) GetActive(ctx context.Context, owner Owner) (*domain.Cart, error) {
	if owner.CustomerID != "" {
		return r.fetchCart(ctx, `SELECT `+cartColumns+`
FROM carts
WHERE customer_id = $1 AND state = 'active'
`, owner.CustomerID)
	}
	if owner.AnonymousID != "" {
		return r.fetchCart(ctx, `SELECT `+cartColumns+`
FROM carts
WHERE anonymous_id = $1 AND state = 'active'
`, owner.AnonymousID)
	}
	return nil, domain.ErrNotFound
}

func (r *postgresRepo) Create(ctx context.Context, owner Owner) (*domain.Cart, error) {
	var customerID, anonymousID *string
	if owner.CustomerID != "" {
		customerID = &owner.CustomerID
	} else if owner.AnonymousID != "" {
		anonymousID = &owner.AnonymousID
	} else {
		return nil, fmt.Errorf("cart repo: create without owner")
	}
	row := r.pool.QueryRow(ctx, `
INSERT INTO carts (customer_id, anonymous_id, state)
VALUES ($1, $2, 'active')
RETURNING `+cartColumns, customerID, anonymousID)
	cart, err := scanCart(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("cart repo: create error=%v", err)
		return nil, err
	}
	r.logger.Printf("cart repo: created id=%s", cart.ID)
	return cart, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
UPDATE carts
SET state = $2,
    coupon_code = $3,
    coupon_applied = $4,
    coupon_rate = $5::numeric,
    updated_at = now()
WHERE id = $1
RETURNING updated_at
`, cart.ID, cart.State, cart.Coupon.Code, cart.Coupon.Applied, cart.Coupon.Rate().String()).Scan(&cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, line := range cart.Lines {
		snapshot, err := json.Marshal(line.Product)
		if err != nil {
			return fmt.Errorf("cart repo: encode snapshot product_id=%s: %w", line.Product.ID, err)
		}
		batch.Queue(`
INSERT INTO cart_lines (cart_id, product_id, position, quantity, snapshot, added_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, cart.ID, line.Product.ID, i, line.Quantity, snapshot, line.AddedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Printf("cart repo: save lines id=%s error=%v", cart.ID, err)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) AssignCustomerToAnonymous(ctx context.Context, anonymousID, customerID string) (*domain.Cart, error) {
	const q = `
UPDATE carts
SET customer_id = $1,
    anonymous_id = NULL,
    updated_at = now()
WHERE anonymous_id = $2 AND state = 'active'
RETURNING id::text
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, customerID, anonymousID).Scan(&cartID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return r.fetchCart(ctx, `SELECT `+cartColumns+`
FROM carts
WHERE id = $1
`, cartID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	cart, err := scanCart(r.pool.QueryRow(ctx, cartQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT quantity, snapshot, added_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLineItem
		var snapshot []byte
		if err := rows.Scan(&line.Quantity, &snapshot, &line.AddedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &line.Product); err != nil {
			r.logger.Printf("cart repo: decode snapshot cart_id=%s err=%v", cart.ID, err)
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	var couponCode, couponRate string
	var couponApplied bool
	if err := row.Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.AnonymousID,
		&cart.State,
		&couponCode,
		&couponApplied,
		&couponRate,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(couponRate)
	if err != nil {
		return nil, fmt.Errorf("cart repo: coupon rate %q: %w", couponRate, err)
	}
	cart.Coupon, err = domain.RestoreCouponState(couponCode, couponApplied, rate)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
