package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Order, error)
	CountByBusinessAndStatus(ctx context.Context, businessID uuid.UUID, status Status) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, o *Order) error {
	features, err := json.Marshal(o.Features)
	if err != nil {
		return fmt.Errorf("repository: failed to encode order features: %w", err)
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	query := `
		INSERT INTO orders (id, customer_id, business_id, offer_id, variant_id, title, revisions,
		                    delivery_time_in_days, price, features, offer_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.Exec(ctx, query,
		o.ID, o.CustomerID, o.BusinessID, o.OfferID, o.VariantID, o.Title, o.Revisions,
		o.DeliveryTimeInDays, o.Price, features, string(o.OfferType), string(o.Status),
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	return nil
}

const orderColumns = `id, customer_id, business_id, offer_id, variant_id, title, revisions,
	delivery_time_in_days, price, features, offer_type, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var features []byte
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.BusinessID, &o.OfferID, &o.VariantID, &o.Title, &o.Revisions,
		&o.DeliveryTimeInDays, &o.Price, &features, &o.OfferType, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &o.Features); err != nil {
		return nil, fmt.Errorf("repository: failed to decode order features: %w", err)
	}
	if o.Features == nil {
		o.Features = make([]string, 0)
	}
	return &o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", id, err)
	}
	return o, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	cmdTag, err := r.db.Exec(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", status).Msg("repository: failed to update order status")
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete order %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

func (r *postgresRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE business_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, businessID)
}

func (r *postgresRepository) list(ctx context.Context, query string, userID uuid.UUID) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for %s: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for %s: %w", userID, err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for %s: %w", userID, err)
	}
	return orders, nil
}

func (r *postgresRepository) CountByBusinessAndStatus(ctx context.Context, businessID uuid.UUID, status Status) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE business_id = $1 AND status = $2`
	if err := r.db.QueryRow(ctx, query, businessID, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count orders for %s: %w", businessID, err)
	}
	return count, nil
}
