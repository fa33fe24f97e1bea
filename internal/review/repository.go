package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("review not found")

type Filter struct {
	ReviewerID *uuid.UUID
	BusinessID *uuid.UUID
	Ordering   string
}

type Repository interface {
	Create(ctx context.Context, rv *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	Update(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter) ([]Review, error)
	ExistsForPair(ctx context.Context, reviewerID, businessID uuid.UUID) (bool, error)
	AverageForBusiness(ctx context.Context, businessID uuid.UUID) (avg float64, count int, err error)
	GlobalAverage(ctx context.Context) (float64, error)
	Count(ctx context.Context) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, rv *Review) error {
	now := time.Now().UTC()
	rv.CreatedAt = now
	rv.UpdatedAt = now

	query := `
		INSERT INTO reviews (id, rating, description, business_id, reviewer_id, offer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		rv.ID, rv.Rating, rv.Description, rv.BusinessID, rv.ReviewerID, rv.OfferID,
		rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert review: %w", err)
	}
	return nil
}

const reviewColumns = `id, rating, description, business_id, reviewer_id, offer_id, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(
		&rv.ID, &rv.Rating, &rv.Description, &rv.BusinessID, &rv.ReviewerID, &rv.OfferID,
		&rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select review %s: %w", id, err)
	}
	return rv, nil
}

func (r *postgresRepository) Update(ctx context.Context, rv *Review) error {
	rv.UpdatedAt = time.Now().UTC()
	query := `UPDATE reviews SET rating = $1, description = $2, updated_at = $3 WHERE id = $4`
	cmdTag, err := r.db.Exec(ctx, query, rv.Rating, rv.Description, rv.UpdatedAt, rv.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update review %s: %w", rv.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete review %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE 1=1`
	args := make([]any, 0, 2)

	if filter.ReviewerID != nil {
		args = append(args, *filter.ReviewerID)
		query += fmt.Sprintf(" AND reviewer_id = $%d", len(args))
	}
	if filter.BusinessID != nil {
		args = append(args, *filter.BusinessID)
		query += fmt.Sprintf(" AND business_id = $%d", len(args))
	}

	switch filter.Ordering {
	case "rating":
		query += " ORDER BY rating ASC"
	case "-rating":
		query += " ORDER BY rating DESC"
	case "-updated_at":
		query += " ORDER BY updated_at DESC"
	default:
		query += " ORDER BY updated_at ASC"
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reviews: %w", err)
	}
	return reviews, nil
}

func (r *postgresRepository) ExistsForPair(ctx context.Context, reviewerID, businessID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE reviewer_id = $1 AND business_id = $2)`
	if err := r.db.QueryRow(ctx, query, reviewerID, businessID).Scan(&exists); err != nil {
		return false, fmt.Errorf("repository: failed to check existing review: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) AverageForBusiness(ctx context.Context, businessID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE business_id = $1`
	if err := r.db.QueryRow(ctx, query, businessID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("repository: failed to average reviews for %s: %w", businessID, err)
	}
	return avg, count, nil
}

func (r *postgresRepository) GlobalAverage(ctx context.Context) (float64, error) {
	var avg float64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(AVG(rating), 0) FROM reviews`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("repository: failed to average all reviews: %w", err)
	}
	return avg, nil
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count reviews: %w", err)
	}
	return count, nil
}
