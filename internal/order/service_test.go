package order_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/offer"
	"github.com/Seldir193/coderr-backend/internal/order"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByBusinessAndStatus(ctx context.Context, businessID uuid.UUID, status order.Status) (int, error) {
	args := m.Called(ctx, businessID, status)
	return args.Int(0), args.Error(1)
}

type MockOfferSource struct {
	mock.Mock
}

func (m *MockOfferSource) GetByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferSource) GetVariantByID(ctx context.Context, id uuid.UUID) (*offer.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Variant), args.Error(1)
}

type MockAccountSource struct {
	mock.Mock
}

func (m *MockAccountSource) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountSource) HasBusinessProfile(ctx context.Context, accountID uuid.UUID) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

type orderFixture struct {
	repo     *MockOrderRepository
	offers   *MockOfferSource
	accounts *MockAccountSource
	svc      order.Service

	customer auth.Actor
	offer    *offer.Offer
	variant  *offer.Variant
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		repo:     new(MockOrderRepository),
		offers:   new(MockOfferSource),
		accounts: new(MockAccountSource),
		customer: auth.Actor{ID: uuid.Must(uuid.NewV4()), IsCustomer: true},
	}
	f.svc = order.NewService(f.repo, f.offers, f.accounts)

	offerID := uuid.Must(uuid.NewV4())
	f.variant = &offer.Variant{
		ID:                 uuid.Must(uuid.NewV4()),
		OfferID:            offerID,
		Title:              "Premium Design",
		Price:              decimal.RequireFromString("500.00"),
		DeliveryTimeInDays: 3,
		RevisionLimit:      10,
		OfferType:          offer.TypePremium,
		Features:           []string{"Logo Design", "Flyer"},
	}
	f.offer = &offer.Offer{
		ID:      offerID,
		OwnerID: uuid.Must(uuid.NewV4()),
		Title:   "Website Design",
		Variants: []offer.Variant{
			*f.variant,
		},
	}
	return f
}

func (f *orderFixture) expectResolve() {
	f.offers.On("GetVariantByID", mock.Anything, f.variant.ID).Return(f.variant, nil).Once()
	f.offers.On("GetByID", mock.Anything, f.offer.ID).Return(f.offer, nil).Once()
}

func TestOrderService_Create_CopiesVariantSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	f.expectResolve()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	created, err := f.svc.Create(context.Background(), f.customer, f.variant.ID)

	require.NoError(t, err)
	require.Equal(t, f.customer.ID, created.CustomerID)
	require.Equal(t, f.offer.OwnerID, created.BusinessID)
	require.Equal(t, f.offer.ID, created.OfferID)
	require.True(t, created.VariantID.Valid)
	require.Equal(t, f.variant.ID, created.VariantID.UUID)
	require.Equal(t, "Premium Design", created.Title)
	require.True(t, created.Price.Equal(f.variant.Price))
	require.Equal(t, 3, created.DeliveryTimeInDays)
	require.Equal(t, 10, created.Revisions)
	require.Equal(t, []string{"Logo Design", "Flyer"}, created.Features)
	require.Equal(t, offer.TypePremium, created.OfferType)
	f.repo.AssertExpectations(t)
}

func TestOrderService_Create_SnapshotSurvivesVariantMutation(t *testing.T) {
	f := newOrderFixture(t)
	f.expectResolve()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	created, err := f.svc.Create(context.Background(), f.customer, f.variant.ID)
	require.NoError(t, err)

	// Later edits to the source variant must not reach the stored copy.
	f.variant.Price = decimal.RequireFromString("999.00")
	f.variant.Title = "Changed"

	require.True(t, created.Price.Equal(decimal.RequireFromString("500.00")))
	require.Equal(t, "Premium Design", created.Title)
}

func TestOrderService_Create_StartsPending(t *testing.T) {
	f := newOrderFixture(t)
	f.expectResolve()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	created, err := f.svc.Create(context.Background(), f.customer, f.variant.ID)

	require.NoError(t, err)
	require.Equal(t, order.StatusPending, created.Status)
}

func TestOrderService_CreateDirect_StartsInProgress(t *testing.T) {
	f := newOrderFixture(t)
	f.expectResolve()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	created, err := f.svc.CreateDirect(context.Background(), f.customer, f.variant.ID)

	require.NoError(t, err)
	require.Equal(t, order.StatusInProgress, created.Status)
}

func TestOrderService_Create_RequiresCustomerActor(t *testing.T) {
	f := newOrderFixture(t)
	business := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsBusiness: true}

	_, err := f.svc.Create(context.Background(), business, f.variant.ID)

	require.ErrorIs(t, err, order.ErrNotCustomer)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_Create_MissingVariant(t *testing.T) {
	f := newOrderFixture(t)
	f.offers.On("GetVariantByID", mock.Anything, f.variant.ID).Return(nil, offer.ErrVariantNotFound).Once()

	_, err := f.svc.Create(context.Background(), f.customer, f.variant.ID)

	require.ErrorIs(t, err, order.ErrVariantGone)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	businessID := uuid.Must(uuid.NewV4())
	business := auth.Actor{ID: businessID, IsBusiness: true}
	stored := func() *order.Order {
		return &order.Order{
			ID:         uuid.Must(uuid.NewV4()),
			BusinessID: businessID,
			Status:     order.StatusCompleted,
		}
	}

	t.Run("any known status is accepted regardless of the current one", func(t *testing.T) {
		for _, target := range []order.Status{order.StatusPending, order.StatusInProgress, order.StatusCompleted, order.StatusCancelled} {
			f := newOrderFixture(t)
			existing := stored()
			f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
			f.repo.On("UpdateStatus", mock.Anything, existing.ID, target).Return(nil).Once()

			updated, err := f.svc.UpdateStatus(context.Background(), business, existing.ID, target.String())

			require.NoError(t, err)
			require.Equal(t, target, updated.Status)
			f.repo.AssertExpectations(t)
		}
	})

	t.Run("unknown status is rejected before any lookup", func(t *testing.T) {
		f := newOrderFixture(t)

		_, err := f.svc.UpdateStatus(context.Background(), business, uuid.Must(uuid.NewV4()), "done")

		require.ErrorIs(t, err, order.ErrInvalidStatus)
		require.EqualError(t, err, "Invalid status value.")
		f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("customer actors may not update status", func(t *testing.T) {
		f := newOrderFixture(t)

		_, err := f.svc.UpdateStatus(context.Background(), f.customer, uuid.Must(uuid.NewV4()), "completed")

		require.ErrorIs(t, err, order.ErrNotBusiness)
	})

	t.Run("foreign business sees not found", func(t *testing.T) {
		f := newOrderFixture(t)
		existing := stored()
		stranger := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsBusiness: true}
		f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

		_, err := f.svc.UpdateStatus(context.Background(), stranger, existing.ID, "completed")

		require.ErrorIs(t, err, order.ErrNotFound)
		f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_Delete_NonOwnerSeesNotFound(t *testing.T) {
	f := newOrderFixture(t)
	existing := &order.Order{ID: uuid.Must(uuid.NewV4()), BusinessID: uuid.Must(uuid.NewV4())}
	stranger := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsBusiness: true}

	f.repo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()

	err := f.svc.Delete(context.Background(), stranger, existing.ID)

	require.ErrorIs(t, err, order.ErrNotFound)
	f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestOrderService_CountForBusiness(t *testing.T) {
	t.Run("counts for an existing business user", func(t *testing.T) {
		f := newOrderFixture(t)
		businessID := uuid.Must(uuid.NewV4())
		f.accounts.On("GetByID", mock.Anything, businessID).Return(&account.Account{ID: businessID}, nil).Once()
		f.accounts.On("HasBusinessProfile", mock.Anything, businessID).Return(true, nil).Once()
		f.repo.On("CountByBusinessAndStatus", mock.Anything, businessID, order.StatusInProgress).Return(4, nil).Once()

		count, err := f.svc.CountForBusiness(context.Background(), businessID, order.StatusInProgress)

		require.NoError(t, err)
		require.Equal(t, 4, count)
	})

	t.Run("target without a business profile", func(t *testing.T) {
		f := newOrderFixture(t)
		customerID := uuid.Must(uuid.NewV4())
		f.accounts.On("GetByID", mock.Anything, customerID).Return(&account.Account{ID: customerID}, nil).Once()
		f.accounts.On("HasBusinessProfile", mock.Anything, customerID).Return(false, nil).Once()

		_, err := f.svc.CountForBusiness(context.Background(), customerID, order.StatusInProgress)

		require.ErrorIs(t, err, order.ErrBusinessUserNotFound)
		f.repo.AssertNotCalled(t, "CountByBusinessAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown business user", func(t *testing.T) {
		f := newOrderFixture(t)
		businessID := uuid.Must(uuid.NewV4())
		f.accounts.On("GetByID", mock.Anything, businessID).Return(nil, account.ErrNotFound).Once()

		_, err := f.svc.CountForBusiness(context.Background(), businessID, order.StatusCompleted)

		require.ErrorIs(t, err, order.ErrBusinessUserNotFound)
		f.repo.AssertNotCalled(t, "CountByBusinessAndStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
