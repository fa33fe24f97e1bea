package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/offer"
)

var (
	ErrNotCustomer          = errors.New("only customers can create orders")
	ErrNotBusiness          = errors.New("only business can update orders")
	ErrInvalidStatus        = errors.New("Invalid status value.")
	ErrVariantGone          = errors.New("offer detail not found")
	ErrBusinessUserNotFound = errors.New("business user not found")
)

// OfferSource is the slice of the offer repository the snapshot engine
// needs at order creation.
type OfferSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error)
	GetVariantByID(ctx context.Context, id uuid.UUID) (*offer.Variant, error)
}

// AccountSource resolves business users for the count endpoints.
type AccountSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	HasBusinessProfile(ctx context.Context, accountID uuid.UUID) (bool, error)
}

type Service interface {
	// Create is the generic creation path; new orders start as pending.
	Create(ctx context.Context, actor auth.Actor, variantID uuid.UUID) (*Order, error)
	// CreateDirect is the buy-now path; new orders start as in_progress.
	CreateDirect(ctx context.Context, actor auth.Actor, variantID uuid.UUID) (*Order, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	ListFor(ctx context.Context, actor auth.Actor) ([]Order, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, newStatus string) (*Order, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	CountForBusiness(ctx context.Context, businessID uuid.UUID, status Status) (int, error)
}

type service struct {
	repo     Repository
	offers   OfferSource
	accounts AccountSource
}

func NewService(repo Repository, offers OfferSource, accounts AccountSource) Service {
	return &service{repo: repo, offers: offers, accounts: accounts}
}

func (s *service) Create(ctx context.Context, actor auth.Actor, variantID uuid.UUID) (*Order, error) {
	return s.create(ctx, actor, variantID, StatusPending)
}

func (s *service) CreateDirect(ctx context.Context, actor auth.Actor, variantID uuid.UUID) (*Order, error) {
	return s.create(ctx, actor, variantID, StatusInProgress)
}

func (s *service) create(ctx context.Context, actor auth.Actor, variantID uuid.UUID, initial Status) (*Order, error) {
	if !actor.IsCustomer {
		return nil, ErrNotCustomer
	}

	variant, err := s.offers.GetVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, offer.ErrVariantNotFound) {
			return nil, ErrVariantGone
		}
		return nil, fmt.Errorf("service: failed to resolve variant for order: %w", err)
	}

	src, err := s.offers.GetByID(ctx, variant.OfferID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve offer for order: %w", err)
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	o := &Order{
		ID:         orderID,
		CustomerID: actor.ID,
		OfferID:    src.ID,
		VariantID:  uuid.NullUUID{UUID: variant.ID, Valid: true},
		Status:     initial,
	}
	hydrateSnapshot(o, src, variant)

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("variant_id", variantID).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("customer_id", o.CustomerID).
		Stringer("business_id", o.BusinessID).
		Str("status", o.Status.String()).
		Msg("service: order created")
	return o, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return o, nil
}

func (s *service) ListFor(ctx context.Context, actor auth.Actor) ([]Order, error) {
	var orders []Order
	var err error
	if actor.IsBusiness {
		orders, err = s.repo.ListByBusiness(ctx, actor.ID)
	} else {
		orders, err = s.repo.ListByCustomer(ctx, actor.ID)
	}
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.ID).Msg("service: failed to list orders")
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus accepts any of the four known statuses regardless of the
// current one; only unknown values are rejected.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, newStatus string) (*Order, error) {
	if !actor.IsBusiness {
		return nil, ErrNotBusiness
	}

	status := Status(newStatus)
	if !status.Known() {
		return nil, ErrInvalidStatus
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order for status update: %w", err)
	}
	if !actor.IsOwnerOrAdmin(o.BusinessID) {
		// Scoped lookups in the original surface foreign orders as 404.
		return nil, ErrNotFound
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", id).Stringer("old_status", o.Status).Stringer("new_status", status).Msg("service: order status updated")
	o.Status = status
	return o, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch order for delete: %w", err)
	}
	if !actor.IsOwnerOrAdmin(o.BusinessID) {
		return ErrNotFound
	}

	// Reviews reference the business user and offer directly, so deleting an
	// order never touches them.
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete order: %w", err)
	}
	log.Info().Stringer("order_id", id).Msg("service: order deleted")
	return nil
}

func (s *service) CountForBusiness(ctx context.Context, businessID uuid.UUID, status Status) (int, error) {
	if _, err := s.accounts.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return 0, ErrBusinessUserNotFound
		}
		return 0, fmt.Errorf("service: failed to resolve business user: %w", err)
	}
	isBusiness, err := s.accounts.HasBusinessProfile(ctx, businessID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to check business profile: %w", err)
	}
	if !isBusiness {
		return 0, ErrBusinessUserNotFound
	}

	count, err := s.repo.CountByBusinessAndStatus(ctx, businessID, status)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count orders: %w", err)
	}
	return count, nil
}
