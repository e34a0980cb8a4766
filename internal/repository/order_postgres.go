package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const ordersSchemaSQL = `
	CREATE TABLE IF NOT EXISTS orders (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		vendor_name     TEXT NOT NULL,
		items           JSONB NOT NULL,
		subtotal        NUMERIC(12,2) NOT NULL,
		delivery_fee    NUMERIC(12,2) NOT NULL,
		tax             NUMERIC(12,2) NOT NULL,
		total           NUMERIC(12,2) NOT NULL,
		status          TEXT NOT NULL,
		pickup_code     TEXT NOT NULL,
		payment_method  TEXT NOT NULL,
		payment_details TEXT NOT NULL DEFAULT '',
		estimated_time  TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC);
`

const orderColumns = `id, user_id, vendor_name, items, subtotal::text, delivery_fee::text, tax::text,
	total::text, status, pickup_code, payment_method, payment_details, estimated_time, created_at`

// PostgresOrderRepository stores orders in a Postgres table
type PostgresOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPool connects to Postgres with a small pool
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	return pool, nil
}

// NewPostgresOrderRepository creates the orders table if needed
func NewPostgresOrderRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresOrderRepository, error) {
	if _, err := pool.Exec(ctx, ordersSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize orders schema: %w", err)
	}
	return &PostgresOrderRepository{pool: pool}, nil
}

// Save inserts the order; an existing row with the same ID is kept as is
func (r *PostgresOrderRepository) Save(ctx context.Context, order models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (id, user_id, vendor_name, items, subtotal, delivery_fee, tax, total,
			status, pickup_code, payment_method, payment_details, estimated_time, created_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7::text::numeric, $8::text::numeric,
			$9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.UserID, order.VendorName, items,
		order.Subtotal.String(), order.DeliveryFee.String(), order.Tax.String(), order.Total.String(),
		string(order.Status), order.PickupCode, order.PaymentMethod, order.PaymentDetails,
		order.EstimatedTime, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

// Get returns an order by its ID
func (r *PostgresOrderRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first
func (r *PostgresOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read order row: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// UpdateStatus moves the order forward; the WHERE clause rejects concurrent moves
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	var current string
	err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", id, err)
	}

	from := models.OrderStatus(current)
	if !models.CanTransition(from, status) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, status)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`, string(status), id, current)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s changed concurrently", models.ErrInvalidTransition, id)
	}
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		order                           models.Order
		items                           []byte
		subtotal, fee, tax, total, stat string
	)

	err := row.Scan(&order.ID, &order.UserID, &order.VendorName, &items,
		&subtotal, &fee, &tax, &total, &stat,
		&order.PickupCode, &order.PaymentMethod, &order.PaymentDetails, &order.EstimatedTime, &order.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}

	amounts := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&order.Subtotal, subtotal},
		{&order.DeliveryFee, fee},
		{&order.Tax, tax},
		{&order.Total, total},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(a.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", a.raw, err)
		}
		*a.dst = v
	}

	order.Status = models.OrderStatus(stat)
	order.CreatedAt = order.CreatedAt.UTC()
	return &order, nil
}
