package offer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("offer not found")
	ErrVariantNotFound = errors.New("offer variant not found")
)

// Filter mirrors the offer list query parameters. Nil fields are not
// applied. Price bounds compare against the offer's minimum variant price.
type Filter struct {
	CreatorID       *uuid.UUID
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	MaxDeliveryTime *int
	Search          string
	Ordering        string
}

type Repository interface {
	CreateWithVariants(ctx context.Context, o *Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Offer, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*Variant, error)
	UpdateWithVariants(ctx context.Context, o *Offer, upserts []Variant, deleteTypes []OfferType) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter) ([]Offer, error)
	Count(ctx context.Context) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const insertVariantQuery = `
	INSERT INTO offer_variants (id, offer_id, title, price, delivery_time_in_days, revision_limit, offer_type, features)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (offer_id, offer_type) DO UPDATE
	SET title = EXCLUDED.title,
	    price = EXCLUDED.price,
	    delivery_time_in_days = EXCLUDED.delivery_time_in_days,
	    revision_limit = EXCLUDED.revision_limit,
	    features = EXCLUDED.features
`

func (r *postgresRepository) CreateWithVariants(ctx context.Context, o *Offer) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("offer_id", o.ID).Msg("repository: failed to rollback offer creation")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	queryOffer := `
		INSERT INTO offers (id, owner_id, title, description, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, queryOffer, o.ID, o.OwnerID, o.Title, o.Description, o.ImageURL, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert offer: %w", err)
	}

	for i := range o.Variants {
		if err = insertVariant(ctx, tx, &o.Variants[i]); err != nil {
			return err
		}
	}
	return nil
}

func insertVariant(ctx context.Context, tx pgx.Tx, v *Variant) error {
	features, err := json.Marshal(v.Features)
	if err != nil {
		return fmt.Errorf("repository: failed to encode variant features: %w", err)
	}
	_, err = tx.Exec(ctx, insertVariantQuery,
		v.ID, v.OfferID, v.Title, v.Price, v.DeliveryTimeInDays, v.RevisionLimit, string(v.OfferType), features,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert variant %s for offer %s: %w", v.OfferType, v.OfferID, err)
	}
	return nil
}

func (r *postgresRepository) UpdateWithVariants(ctx context.Context, o *Offer, upserts []Variant, deleteTypes []OfferType) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("offer_id", o.ID).Msg("repository: failed to rollback offer update")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	o.UpdatedAt = time.Now().UTC()
	queryOffer := `
		UPDATE offers
		SET title = $1, description = $2, image_url = $3, updated_at = $4
		WHERE id = $5
	`
	cmdTag, execErr := tx.Exec(ctx, queryOffer, o.Title, o.Description, o.ImageURL, o.UpdatedAt, o.ID)
	if execErr != nil {
		err = fmt.Errorf("repository: failed to update offer %s: %w", o.ID, execErr)
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}

	for i := range upserts {
		if err = insertVariant(ctx, tx, &upserts[i]); err != nil {
			return err
		}
	}

	if len(deleteTypes) > 0 {
		types := make([]string, 0, len(deleteTypes))
		for _, t := range deleteTypes {
			types = append(types, string(t))
		}
		_, err = tx.Exec(ctx, `DELETE FROM offer_variants WHERE offer_id = $1 AND offer_type = ANY($2)`, o.ID, types)
		if err != nil {
			err = fmt.Errorf("repository: failed to delete stale variants for offer %s: %w", o.ID, err)
			return err
		}
	}
	return nil
}

const offerColumns = `id, owner_id, title, description, image_url, created_at, updated_at`

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`

	var o Offer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.OwnerID, &o.Title, &o.Description, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select offer %s: %w", id, err)
	}

	variants, err := r.variantsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Variants = variants[id]
	if o.Variants == nil {
		o.Variants = make([]Variant, 0)
	}
	return &o, nil
}

const variantColumns = `id, offer_id, title, price, delivery_time_in_days, revision_limit, offer_type, features`

func scanVariant(row pgx.Row) (*Variant, error) {
	var v Variant
	var features []byte
	err := row.Scan(
		&v.ID, &v.OfferID, &v.Title, &v.Price, &v.DeliveryTimeInDays,
		&v.RevisionLimit, &v.OfferType, &features,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &v.Features); err != nil {
		return nil, fmt.Errorf("repository: failed to decode variant features: %w", err)
	}
	if v.Features == nil {
		v.Features = make([]string, 0)
	}
	return &v, nil
}

func (r *postgresRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM offer_variants WHERE id = $1`
	v, err := scanVariant(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("repository: failed to select variant %s: %w", id, err)
	}
	return v, nil
}

func (r *postgresRepository) variantsFor(ctx context.Context, offerIDs []uuid.UUID) (map[uuid.UUID][]Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM offer_variants WHERE offer_id = ANY($1) ORDER BY offer_type`
	rows, err := r.db.Query(ctx, query, offerIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query variants: %w", err)
	}
	defer rows.Close()

	byOffer := make(map[uuid.UUID][]Variant)
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan variant: %w", err)
		}
		byOffer[v.OfferID] = append(byOffer[v.OfferID], *v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating variants: %w", err)
	}
	return byOffer, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete offer %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Offer, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT o.id, o.owner_id, o.title, o.description, o.image_url, o.created_at, o.updated_at
		FROM offers o
		LEFT JOIN (
			SELECT offer_id, MIN(price) AS min_price, MIN(delivery_time_in_days) AS min_delivery
			FROM offer_variants
			GROUP BY offer_id
		) agg ON agg.offer_id = o.id
		WHERE 1=1
	`)

	args := make([]any, 0, 5)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CreatorID != nil {
		sb.WriteString(" AND o.owner_id = " + arg(*filter.CreatorID))
	}
	if filter.MinPrice != nil {
		sb.WriteString(" AND agg.min_price >= " + arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		sb.WriteString(" AND agg.min_price <= " + arg(*filter.MaxPrice))
	}
	if filter.MaxDeliveryTime != nil {
		sb.WriteString(" AND EXISTS (SELECT 1 FROM offer_variants v WHERE v.offer_id = o.id AND v.delivery_time_in_days <= " + arg(*filter.MaxDeliveryTime) + ")")
	}
	if filter.Search != "" {
		placeholder := arg("%" + filter.Search + "%")
		sb.WriteString(" AND (o.title ILIKE " + placeholder + " OR o.description ILIKE " + placeholder + ")")
	}

	// The updated_at directions are intentionally inverted: the original API
	// serves newest-first for "updated_at" and oldest-first for "-updated_at".
	switch filter.Ordering {
	case "updated_at":
		sb.WriteString(" ORDER BY o.updated_at DESC")
	case "-updated_at":
		sb.WriteString(" ORDER BY o.updated_at ASC")
	case "min_price":
		sb.WriteString(" ORDER BY agg.min_price ASC NULLS LAST")
	case "-min_price":
		sb.WriteString(" ORDER BY agg.min_price DESC NULLS LAST")
	default:
		sb.WriteString(" ORDER BY o.updated_at DESC")
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := make([]Offer, 0)
	offerIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var o Offer
		err := rows.Scan(&o.ID, &o.OwnerID, &o.Title, &o.Description, &o.ImageURL, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan offer: %w", err)
		}
		o.Variants = make([]Variant, 0)
		offers = append(offers, o)
		offerIDs = append(offerIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating offers: %w", err)
	}

	if len(offerIDs) == 0 {
		return offers, nil
	}

	variants, err := r.variantsFor(ctx, offerIDs)
	if err != nil {
		return nil, err
	}
	for i := range offers {
		if vs, ok := variants[offers[i].ID]; ok {
			offers[i].Variants = vs
		}
	}
	return offers, nil
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count offers: %w", err)
	}
	return count, nil
}
