package offer_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/offer"
)

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) CreateWithVariants(ctx context.Context, o *offer.Offer) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) GetVariantByID(ctx context.Context, id uuid.UUID) (*offer.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Variant), args.Error(1)
}

func (m *MockOfferRepository) UpdateWithVariants(ctx context.Context, o *offer.Offer, upserts []offer.Variant, deleteTypes []offer.OfferType) error {
	args := m.Called(ctx, o, upserts, deleteTypes)
	return args.Error(0)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepository) List(ctx context.Context, filter offer.Filter) ([]offer.Offer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]offer.Offer), args.Error(1)
}

func (m *MockOfferRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func businessActor() auth.Actor {
	return auth.Actor{ID: uuid.Must(uuid.NewV4()), IsBusiness: true}
}

func variantInput(title string, price string, delivery int, offerType offer.OfferType) offer.VariantInput {
	p := decimal.RequireFromString(price)
	d := delivery
	rev := 2
	return offer.VariantInput{
		Title:              &title,
		Price:              &p,
		Revisions:          &rev,
		DeliveryTimeInDays: &d,
		Features:           []string{"Logo Design"},
		OfferType:          offerType,
	}
}

func fullVariantSet() []offer.VariantInput {
	return []offer.VariantInput{
		variantInput("Basic", "100.00", 7, offer.TypeBasic),
		variantInput("Standard", "200.00", 5, offer.TypeStandard),
		variantInput("Premium", "500.00", 3, offer.TypePremium),
	}
}

func TestOfferService_Create_Success(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	actor := businessActor()

	mockRepo.On("CreateWithVariants", mock.Anything, mock.AnythingOfType("*offer.Offer")).
		Return(nil).
		Once()

	created, err := svc.Create(context.Background(), actor, offer.CreateInput{
		Title:    "Website Design",
		Variants: fullVariantSet(),
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, actor.ID, created.OwnerID)
	require.Len(t, created.Variants, 3)
	mockRepo.AssertExpectations(t)
}

func TestOfferService_Create_RequiresBusinessActor(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	customer := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsCustomer: true}

	_, err := svc.Create(context.Background(), customer, offer.CreateInput{
		Title:    "Website Design",
		Variants: fullVariantSet(),
	})

	require.ErrorIs(t, err, offer.ErrForbidden)
	mockRepo.AssertNotCalled(t, "CreateWithVariants", mock.Anything, mock.Anything)
}

func TestOfferService_Create_VariantSetValidation(t *testing.T) {
	tests := []struct {
		name     string
		variants []offer.VariantInput
	}{
		{
			name: "two variants rejected",
			variants: []offer.VariantInput{
				variantInput("Basic", "100.00", 7, offer.TypeBasic),
				variantInput("Standard", "200.00", 5, offer.TypeStandard),
			},
		},
		{
			name: "four variants rejected",
			variants: append(fullVariantSet(),
				variantInput("Extra", "900.00", 1, offer.TypePremium)),
		},
		{
			name: "duplicate tier rejected",
			variants: []offer.VariantInput{
				variantInput("Basic", "100.00", 7, offer.TypeBasic),
				variantInput("Basic Again", "150.00", 6, offer.TypeBasic),
				variantInput("Premium", "500.00", 3, offer.TypePremium),
			},
		},
		{
			name: "unknown tier rejected",
			variants: []offer.VariantInput{
				variantInput("Basic", "100.00", 7, offer.TypeBasic),
				variantInput("Standard", "200.00", 5, offer.TypeStandard),
				variantInput("Gold", "500.00", 3, offer.OfferType("gold")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockOfferRepository)
			svc := offer.NewService(mockRepo)

			_, err := svc.Create(context.Background(), businessActor(), offer.CreateInput{
				Title:    "Website Design",
				Variants: tt.variants,
			})

			require.ErrorIs(t, err, offer.ErrValidation)
			// A rejected payload must leave zero rows behind.
			mockRepo.AssertNotCalled(t, "CreateWithVariants", mock.Anything, mock.Anything)
		})
	}
}

func TestOfferService_Create_MissingVariantFields(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)

	variants := fullVariantSet()
	variants[1].Price = nil

	_, err := svc.Create(context.Background(), businessActor(), offer.CreateInput{
		Title:    "Website Design",
		Variants: variants,
	})

	require.ErrorIs(t, err, offer.ErrValidation)
	mockRepo.AssertNotCalled(t, "CreateWithVariants", mock.Anything, mock.Anything)
}

func TestOfferService_Create_InvalidVariantValues(t *testing.T) {
	t.Run("negative price", func(t *testing.T) {
		mockRepo := new(MockOfferRepository)
		svc := offer.NewService(mockRepo)

		variants := fullVariantSet()
		negative := decimal.RequireFromString("-1.00")
		variants[0].Price = &negative

		_, err := svc.Create(context.Background(), businessActor(), offer.CreateInput{Title: "X", Variants: variants})
		require.ErrorIs(t, err, offer.ErrValidation)
	})

	t.Run("delivery below one day", func(t *testing.T) {
		mockRepo := new(MockOfferRepository)
		svc := offer.NewService(mockRepo)

		variants := fullVariantSet()
		zero := 0
		variants[0].DeliveryTimeInDays = &zero

		_, err := svc.Create(context.Background(), businessActor(), offer.CreateInput{Title: "X", Variants: variants})
		require.ErrorIs(t, err, offer.ErrValidation)
	})

	t.Run("empty features", func(t *testing.T) {
		mockRepo := new(MockOfferRepository)
		svc := offer.NewService(mockRepo)

		variants := fullVariantSet()
		variants[0].Features = []string{}

		_, err := svc.Create(context.Background(), businessActor(), offer.CreateInput{Title: "X", Variants: variants})
		require.ErrorIs(t, err, offer.ErrValidation)
	})
}

func storedOffer(ownerID uuid.UUID) *offer.Offer {
	offerID := uuid.Must(uuid.NewV4())
	o := &offer.Offer{
		ID:      offerID,
		OwnerID: ownerID,
		Title:   "Website Design",
	}
	for _, tier := range offer.AllTypes {
		o.Variants = append(o.Variants, offer.Variant{
			ID:                 uuid.Must(uuid.NewV4()),
			OfferID:            offerID,
			Title:              string(tier),
			Price:              decimal.RequireFromString("100.00"),
			DeliveryTimeInDays: 7,
			OfferType:          tier,
			Features:           []string{"Logo Design"},
		})
	}
	return o
}

func TestOfferService_Update_ReplacesVariantsByPresence(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	actor := businessActor()
	existing := storedOffer(actor.ID)

	// Supplying only a basic entry removes the standard and premium tiers.
	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Twice()
	mockRepo.On("UpdateWithVariants", mock.Anything, mock.AnythingOfType("*offer.Offer"),
		mock.MatchedBy(func(upserts []offer.Variant) bool {
			return len(upserts) == 1 && upserts[0].OfferType == offer.TypeBasic
		}),
		mock.MatchedBy(func(deleteTypes []offer.OfferType) bool {
			if len(deleteTypes) != 2 {
				return false
			}
			seen := map[offer.OfferType]bool{}
			for _, dt := range deleteTypes {
				seen[dt] = true
			}
			return seen[offer.TypeStandard] && seen[offer.TypePremium]
		}),
	).Return(nil).Once()

	_, err := svc.Update(context.Background(), actor, existing.ID, offer.UpdateInput{
		Variants: []offer.VariantInput{
			variantInput("Basic Updated", "120.00", 7, offer.TypeBasic),
		},
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestOfferService_Update_EmptyVariantPayloadLeavesSetUntouched(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	actor := businessActor()
	existing := storedOffer(actor.ID)
	newTitle := "Renamed"

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Twice()
	mockRepo.On("UpdateWithVariants", mock.Anything, mock.AnythingOfType("*offer.Offer"),
		mock.MatchedBy(func(upserts []offer.Variant) bool { return len(upserts) == 0 }),
		mock.MatchedBy(func(deleteTypes []offer.OfferType) bool { return len(deleteTypes) == 0 }),
	).Return(nil).Once()

	_, err := svc.Update(context.Background(), actor, existing.ID, offer.UpdateInput{Title: &newTitle})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestOfferService_Update_NonOwnerSeesNotFound(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	owner := businessActor()
	stranger := businessActor()
	existing := storedOffer(owner.ID)
	newTitle := "Hijacked"

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

	_, err := svc.Update(context.Background(), stranger, existing.ID, offer.UpdateInput{Title: &newTitle})

	require.ErrorIs(t, err, offer.ErrNotFound)
	mockRepo.AssertNotCalled(t, "UpdateWithVariants", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOfferService_Delete_NonOwnerSeesNotFound(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	owner := businessActor()
	stranger := businessActor()
	existing := storedOffer(owner.ID)

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

	err := svc.Delete(context.Background(), stranger, existing.ID)

	require.ErrorIs(t, err, offer.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestOfferService_Delete_AdminMayDeleteForeignOffer(t *testing.T) {
	mockRepo := new(MockOfferRepository)
	svc := offer.NewService(mockRepo)
	owner := businessActor()
	admin := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsStaff: true}
	existing := storedOffer(owner.ID)

	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	mockRepo.On("Delete", mock.Anything, existing.ID).Return(nil).Once()

	err := svc.Delete(context.Background(), admin, existing.ID)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
