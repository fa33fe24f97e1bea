package offer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Seldir193/coderr-backend/internal/auth"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("only business users can create offers")
)

// VariantInput is one entry of an offer's variant payload. On create every
// field is required; on update nil fields keep the prior value of the
// matching variant.
type VariantInput struct {
	Title              *string
	Price              *decimal.Decimal
	Revisions          *int
	DeliveryTimeInDays *int
	Features           []string
	OfferType          OfferType
}

type CreateInput struct {
	Title       string
	Description string
	ImageURL    string
	Variants    []VariantInput
}

type UpdateInput struct {
	Title       *string
	Description *string
	ImageURL    *string
	Variants    []VariantInput
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Offer, error)
	Get(ctx context.Context, id uuid.UUID) (*Offer, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Offer, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	List(ctx context.Context, filter Filter) ([]Offer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Offer, error) {
	if !actor.IsBusiness {
		return nil, ErrForbidden
	}

	if err := validateVariantSet(input.Variants); err != nil {
		return nil, err
	}

	offerID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate offer id: %w", err)
	}

	o := &Offer{
		ID:          offerID,
		OwnerID:     actor.ID,
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Variants:    make([]Variant, 0, len(input.Variants)),
	}

	for _, in := range input.Variants {
		variant, err := buildVariant(offerID, in)
		if err != nil {
			return nil, err
		}
		o.Variants = append(o.Variants, *variant)
	}

	if err := s.repo.CreateWithVariants(ctx, o); err != nil {
		log.Error().Err(err).Stringer("owner_id", actor.ID).Msg("service: failed to create offer")
		return nil, fmt.Errorf("service: failed to create offer: %w", err)
	}

	log.Info().Stringer("offer_id", o.ID).Stringer("owner_id", actor.ID).Msg("service: offer created")
	return o, nil
}

// validateVariantSet enforces the creation invariant: exactly three entries,
// one per tier, no duplicates, every field present and valid. Runs before
// any persistence so a rejected payload leaves zero rows behind.
func validateVariantSet(variants []VariantInput) error {
	if len(variants) != 3 {
		return fmt.Errorf("%w: you must provide exactly three variants with offer_type: basic, standard, and premium", ErrValidation)
	}
	seen := make(map[OfferType]bool, 3)
	for _, v := range variants {
		if !v.OfferType.Valid() {
			return fmt.Errorf("%w: offer_type must be one of basic, standard, premium", ErrValidation)
		}
		if seen[v.OfferType] {
			return fmt.Errorf("%w: duplicate offer_type %q", ErrValidation, v.OfferType)
		}
		seen[v.OfferType] = true
	}
	return nil
}

func buildVariant(offerID uuid.UUID, in VariantInput) (*Variant, error) {
	if in.Title == nil || in.Price == nil || in.DeliveryTimeInDays == nil || in.Features == nil {
		return nil, fmt.Errorf("%w: variant %q is missing required fields", ErrValidation, in.OfferType)
	}
	if err := validateVariantValues(in); err != nil {
		return nil, err
	}

	variantID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate variant id: %w", err)
	}

	v := &Variant{
		ID:                 variantID,
		OfferID:            offerID,
		Title:              *in.Title,
		Price:              *in.Price,
		DeliveryTimeInDays: *in.DeliveryTimeInDays,
		OfferType:          in.OfferType,
		Features:           in.Features,
	}
	if in.Revisions != nil {
		v.RevisionLimit = *in.Revisions
	}
	return v, nil
}

func validateVariantValues(in VariantInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return fmt.Errorf("%w: price must be a non-negative decimal", ErrValidation)
	}
	if in.DeliveryTimeInDays != nil && *in.DeliveryTimeInDays < 1 {
		return fmt.Errorf("%w: delivery_time_in_days must be at least 1", ErrValidation)
	}
	if in.Features != nil && len(in.Features) == 0 {
		return fmt.Errorf("%w: each variant must have at least one feature", ErrValidation)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Offer, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("offer_id", id).Msg("service: failed to fetch offer")
		return nil, fmt.Errorf("service: failed to fetch offer: %w", err)
	}
	return o, nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error) {
	v, err := s.repo.GetVariantByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVariantNotFound) {
			return nil, ErrVariantNotFound
		}
		log.Error().Err(err).Stringer("variant_id", id).Msg("service: failed to fetch variant")
		return nil, fmt.Errorf("service: failed to fetch variant: %w", err)
	}
	return v, nil
}

// Update patches the offer's own fields and reconciles its variant set.
// The variant list replaces by presence: entries matching an existing tier
// overwrite the provided fields, entries with a new tier are created, and
// tiers absent from the payload are deleted. Supplying only a basic entry
// therefore removes standard and premium. Existing order snapshots keep
// referencing deleted variants through their copied fields.
func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Offer, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch offer for update: %w", err)
	}
	if !actor.IsOwnerOrAdmin(o.OwnerID) {
		// The original hides other users' offers behind a 404.
		return nil, ErrNotFound
	}

	if input.Title != nil {
		o.Title = *input.Title
	}
	if input.Description != nil {
		o.Description = *input.Description
	}
	if input.ImageURL != nil {
		o.ImageURL = *input.ImageURL
	}

	upserts, deleteTypes, err := s.reconcileVariants(o, input.Variants)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateWithVariants(ctx, o, upserts, deleteTypes); err != nil {
		log.Error().Err(err).Stringer("offer_id", id).Msg("service: failed to update offer")
		return nil, fmt.Errorf("service: failed to update offer: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reload offer after update: %w", err)
	}
	log.Info().Stringer("offer_id", id).Int("variants", len(updated.Variants)).Msg("service: offer updated")
	return updated, nil
}

// reconcileVariants maps the payload onto the existing type-keyed variant
// set. An empty payload leaves the set untouched.
func (s *service) reconcileVariants(o *Offer, inputs []VariantInput) ([]Variant, []OfferType, error) {
	if len(inputs) == 0 {
		return nil, nil, nil
	}

	existing := make(map[OfferType]Variant, len(o.Variants))
	for _, v := range o.Variants {
		existing[v.OfferType] = v
	}

	retained := make(map[OfferType]bool, len(inputs))
	upserts := make([]Variant, 0, len(inputs))

	for _, in := range inputs {
		if !in.OfferType.Valid() {
			return nil, nil, fmt.Errorf("%w: offer_type must be one of basic, standard, premium", ErrValidation)
		}
		if err := validateVariantValues(in); err != nil {
			return nil, nil, err
		}

		if current, ok := existing[in.OfferType]; ok {
			// Partial overwrite; unset fields keep their prior value.
			if in.Title != nil {
				current.Title = *in.Title
			}
			if in.Price != nil {
				current.Price = *in.Price
			}
			if in.Revisions != nil {
				current.RevisionLimit = *in.Revisions
			}
			if in.DeliveryTimeInDays != nil {
				current.DeliveryTimeInDays = *in.DeliveryTimeInDays
			}
			if in.Features != nil {
				current.Features = in.Features
			}
			upserts = append(upserts, current)
		} else {
			variant, err := buildVariant(o.ID, in)
			if err != nil {
				return nil, nil, err
			}
			upserts = append(upserts, *variant)
		}
		retained[in.OfferType] = true
	}

	deleteTypes := make([]OfferType, 0)
	for offerType := range existing {
		if !retained[offerType] {
			deleteTypes = append(deleteTypes, offerType)
		}
	}
	return upserts, deleteTypes, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch offer for delete: %w", err)
	}
	if !actor.IsOwnerOrAdmin(o.OwnerID) {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Stringer("offer_id", id).Msg("service: failed to delete offer")
		return fmt.Errorf("service: failed to delete offer: %w", err)
	}
	log.Info().Stringer("offer_id", id).Msg("service: offer deleted")
	return nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]Offer, error) {
	offers, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list offers")
		return nil, fmt.Errorf("service: failed to list offers: %w", err)
	}
	return offers, nil
}
