package review

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/order"
)

var (
	ErrNotCustomer     = errors.New("only customers can create reviews")
	ErrNotBusinessUser = errors.New("the specified user is not a business user")
	ErrAlreadyReviewed = errors.New("you have already reviewed this business user")
	ErrForbidden       = errors.New("not authorized for this review")
)

// AccountSource is the slice of the account repository needed to validate
// review targets.
type AccountSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
	HasBusinessProfile(ctx context.Context, accountID uuid.UUID) (bool, error)
	CountBusinessProfiles(ctx context.Context) (int, error)
}

type OrderCounter interface {
	CountByBusinessAndStatus(ctx context.Context, businessID uuid.UUID, status order.Status) (int, error)
}

type OfferCounter interface {
	Count(ctx context.Context) (int, error)
}

type CreateInput struct {
	BusinessUserID uuid.UUID
	Rating         int
	Description    string
	OfferID        *uuid.UUID
}

type UpdateInput struct {
	Rating      *int
	Description *string
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Review, error)
	Get(ctx context.Context, id uuid.UUID) (*Review, error)
	List(ctx context.Context, actor auth.Actor, businessID *uuid.UUID, ordering string) ([]Review, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Review, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	AverageRating(ctx context.Context, businessID uuid.UUID) (AverageRating, error)
	PendingOrdersCount(ctx context.Context, businessID uuid.UUID) (int, error)
	BaseInfo(ctx context.Context) (*Stats, error)
}

type service struct {
	repo     Repository
	accounts AccountSource
	orders   OrderCounter
	offers   OfferCounter
}

func NewService(repo Repository, accounts AccountSource, orders OrderCounter, offers OfferCounter) Service {
	return &service{repo: repo, accounts: accounts, orders: orders, offers: offers}
}

// Create rejects a second review for the same (reviewer, business) pair
// before inserting; the pair is not backed by a stored uniqueness
// constraint.
func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*Review, error) {
	if !actor.IsCustomer {
		return nil, ErrNotCustomer
	}

	if _, err := s.accounts.GetByID(ctx, input.BusinessUserID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to resolve business user: %w", err)
	}

	isBusiness, err := s.accounts.HasBusinessProfile(ctx, input.BusinessUserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check business profile: %w", err)
	}
	if !isBusiness {
		return nil, ErrNotBusinessUser
	}

	exists, err := s.repo.ExistsForPair(ctx, actor.ID, input.BusinessUserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check existing review: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	reviewID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate review id: %w", err)
	}

	rv := &Review{
		ID:          reviewID,
		Rating:      input.Rating,
		Description: input.Description,
		BusinessID:  input.BusinessUserID,
		ReviewerID:  actor.ID,
	}
	if input.OfferID != nil {
		rv.OfferID = uuid.NullUUID{UUID: *input.OfferID, Valid: true}
	}

	if err := s.repo.Create(ctx, rv); err != nil {
		log.Error().Err(err).Stringer("business_id", input.BusinessUserID).Msg("service: failed to create review")
		return nil, fmt.Errorf("service: failed to create review: %w", err)
	}

	log.Info().Stringer("review_id", rv.ID).Stringer("reviewer_id", actor.ID).Msg("service: review created")
	return rv, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch review: %w", err)
	}
	return rv, nil
}

// List scopes customers without an explicit business filter to their own
// reviews, matching the original read behavior.
func (s *service) List(ctx context.Context, actor auth.Actor, businessID *uuid.UUID, ordering string) ([]Review, error) {
	filter := Filter{BusinessID: businessID, Ordering: ordering}
	if actor.IsCustomer && businessID == nil {
		reviewerID := actor.ID
		filter.ReviewerID = &reviewerID
	}

	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list reviews")
		return nil, fmt.Errorf("service: failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*Review, error) {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch review for update: %w", err)
	}

	if !actor.IsCustomer {
		return nil, ErrNotCustomer
	}
	if rv.ReviewerID != actor.ID {
		return nil, ErrForbidden
	}

	if input.Rating != nil {
		rv.Rating = *input.Rating
	}
	if input.Description != nil {
		rv.Description = *input.Description
	}

	if err := s.repo.Update(ctx, rv); err != nil {
		return nil, fmt.Errorf("service: failed to update review: %w", err)
	}
	return rv, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	rv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch review for delete: %w", err)
	}

	if rv.ReviewerID != actor.ID && !actor.IsStaff {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete review: %w", err)
	}
	log.Info().Stringer("review_id", id).Msg("service: review deleted")
	return nil
}

func (s *service) AverageRating(ctx context.Context, businessID uuid.UUID) (AverageRating, error) {
	avg, count, err := s.repo.AverageForBusiness(ctx, businessID)
	if err != nil {
		return AverageRating{}, fmt.Errorf("service: failed to compute average rating: %w", err)
	}
	return AverageRating{Value: avg, HasReviews: count > 0}, nil
}

// PendingOrdersCount counts in_progress orders. The name is part of the
// response contract and intentionally does not match the filter.
func (s *service) PendingOrdersCount(ctx context.Context, businessID uuid.UUID) (int, error) {
	count, err := s.orders.CountByBusinessAndStatus(ctx, businessID, order.StatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count pending orders: %w", err)
	}
	return count, nil
}

func (s *service) BaseInfo(ctx context.Context) (*Stats, error) {
	reviewCount, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count reviews: %w", err)
	}
	avg, err := s.repo.GlobalAverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to compute global average: %w", err)
	}
	businessCount, err := s.accounts.CountBusinessProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count business profiles: %w", err)
	}
	offerCount, err := s.offers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count offers: %w", err)
	}

	return &Stats{
		ReviewCount:          reviewCount,
		AverageRating:        math.Round(avg*10) / 10,
		BusinessProfileCount: businessCount,
		OfferCount:           offerCount,
	}, nil
}
