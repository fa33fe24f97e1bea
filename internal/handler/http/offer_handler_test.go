package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/offer"
)

type MockOfferService struct {
	mock.Mock
}

func (m *MockOfferService) Create(ctx context.Context, actor auth.Actor, input offer.CreateInput) (*offer.Offer, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferService) Get(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferService) GetVariant(ctx context.Context, id uuid.UUID) (*offer.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Variant), args.Error(1)
}

func (m *MockOfferService) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input offer.UpdateInput) (*offer.Offer, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*offer.Offer), args.Error(1)
}

func (m *MockOfferService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockOfferService) List(ctx context.Context, filter offer.Filter) ([]offer.Offer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]offer.Offer), args.Error(1)
}

type stubOwnerSource struct {
	owner *account.Account
}

func (s stubOwnerSource) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.owner, nil
}

func sampleOffers(n int, ownerID uuid.UUID) []offer.Offer {
	offers := make([]offer.Offer, 0, n)
	for i := 0; i < n; i++ {
		offers = append(offers, offer.Offer{
			ID:        uuid.Must(uuid.NewV4()),
			OwnerID:   ownerID,
			Title:     fmt.Sprintf("Offer %d", i),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
			Variants: []offer.Variant{
				{
					ID:                 uuid.Must(uuid.NewV4()),
					Price:              decimal.RequireFromString("100.00"),
					DeliveryTimeInDays: 7,
					OfferType:          offer.TypeBasic,
				},
			},
		})
	}
	return offers
}

func TestOfferHandler_List_PaginationEnvelope(t *testing.T) {
	mockSvc := new(MockOfferService)
	ownerID := uuid.Must(uuid.NewV4())
	handler := NewOfferHandler(mockSvc, stubOwnerSource{owner: &account.Account{ID: ownerID, Username: "max_business"}}, validator.New(), testPagination)

	mockSvc.On("List", mock.Anything, mock.Anything).Return(sampleOffers(14, ownerID), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/offers?page=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Count       int             `json:"count"`
		TotalPages  int             `json:"total_pages"`
		CurrentPage int             `json:"current_page"`
		Results     []offerListItem `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, 14, envelope.Count)
	require.Equal(t, 3, envelope.TotalPages)
	require.Equal(t, 2, envelope.CurrentPage)
	require.Len(t, envelope.Results, 6)

	first := envelope.Results[0]
	require.NotNil(t, first.MinPrice)
	require.Equal(t, "100.00", *first.MinPrice)
	require.NotNil(t, first.MinDeliveryTime)
	require.Equal(t, 7, *first.MinDeliveryTime)
	require.NotNil(t, first.UserDetails)
	require.Equal(t, "max_business", first.UserDetails.Username)
}

func TestOfferHandler_List_DefaultOrderingIsOldestFirst(t *testing.T) {
	mockSvc := new(MockOfferService)
	ownerID := uuid.Must(uuid.NewV4())
	handler := NewOfferHandler(mockSvc, stubOwnerSource{owner: &account.Account{ID: ownerID}}, validator.New(), testPagination)

	mockSvc.On("List", mock.Anything, mock.MatchedBy(func(filter offer.Filter) bool {
		return filter.Ordering == "-updated_at"
	})).Return(sampleOffers(1, ownerID), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/offers", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	mockSvc.AssertExpectations(t)
}

func TestOfferHandler_List_PageBeyondEnd(t *testing.T) {
	mockSvc := new(MockOfferService)
	ownerID := uuid.Must(uuid.NewV4())
	handler := NewOfferHandler(mockSvc, stubOwnerSource{owner: &account.Account{ID: ownerID}}, validator.New(), testPagination)

	mockSvc.On("List", mock.Anything, mock.Anything).Return(sampleOffers(4, ownerID), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/offers?page=3", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid page.")
}

func TestOfferHandler_List_RejectsBadPriceFilter(t *testing.T) {
	mockSvc := new(MockOfferService)
	handler := NewOfferHandler(mockSvc, stubOwnerSource{}, validator.New(), testPagination)

	req := httptest.NewRequest(http.MethodGet, "/offers?min_price=expensive", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	mockSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestOfferHandler_Create_CustomerForbidden(t *testing.T) {
	mockSvc := new(MockOfferService)
	handler := NewOfferHandler(mockSvc, stubOwnerSource{}, validator.New(), testPagination)

	customer := auth.Actor{ID: uuid.Must(uuid.NewV4()), IsCustomer: true}
	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader(`{"title":"X","details":[]}`))
	req = req.WithContext(auth.WithActor(req.Context(), customer))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Only business users can create offers.")
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOfferHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockOfferService)
	handler := NewOfferHandler(mockSvc, stubOwnerSource{}, validator.New(), testPagination)
	offerID := uuid.Must(uuid.NewV4())

	mockSvc.On("Get", mock.Anything, offerID).Return(nil, offer.ErrNotFound).Once()

	req := newRequestWithURLParam(http.MethodGet, "/offers/"+offerID.String(), "id", offerID.String())
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
