package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/order"
)

type OrderHandler struct {
	orders   order.Service
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service, validate *validator.Validate) *OrderHandler {
	return &OrderHandler{orders: orders, validate: validate}
}

type orderCreateRequest struct {
	OfferDetailID string `json:"offer_detail_id" validate:"required,uuid4"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// orderResponse echoes the snapshot fields; the price keeps two decimal
// places as a string.
type orderResponse struct {
	ID                 uuid.UUID     `json:"id"`
	CustomerUser       uuid.UUID     `json:"customer_user"`
	BusinessUser       uuid.UUID     `json:"business_user"`
	Offer              uuid.UUID     `json:"offer"`
	OfferDetail        uuid.NullUUID `json:"offer_detail"`
	Title              string        `json:"title"`
	Revisions          int           `json:"revisions"`
	DeliveryTimeInDays int           `json:"delivery_time_in_days"`
	Price              string        `json:"price"`
	Features           []string      `json:"features"`
	OfferType          string        `json:"offer_type"`
	Status             string        `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	orders, err := h.orders.ListFor(r.Context(), actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponseFrom(&orders[i]))
	}
	respondWithJSON(w, http.StatusOK, items)
}

// Create is the buy-now path; the new order starts out in progress.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req orderCreateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	variantID, ok := parseUUIDParam(w, req.OfferDetailID)
	if !ok {
		return
	}

	created, err := h.orders.CreateDirect(r.Context(), actor, variantID)
	recordOrderOperation("create", err == nil)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, orderResponseFrom(created))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, orderResponseFrom(o))
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	var req orderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.orders.UpdateStatus(r.Context(), actor, id, req.Status)
	recordOrderOperation("status_update", err == nil)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, orderResponseFrom(updated))
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	err := h.orders.Delete(r.Context(), actor, id)
	recordOrderOperation("delete", err == nil)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountInProgress reports how many orders a business user currently has in
// progress.
func (h *OrderHandler) CountInProgress(w http.ResponseWriter, r *http.Request) {
	businessID, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	count, err := h.orders.CountForBusiness(r.Context(), businessID, order.StatusInProgress)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"order_count": count})
}

func (h *OrderHandler) CountCompleted(w http.ResponseWriter, r *http.Request) {
	businessID, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	count, err := h.orders.CountForBusiness(r.Context(), businessID, order.StatusCompleted)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"completed_order_count": count})
}

func orderResponseFrom(o *order.Order) orderResponse {
	return orderResponse{
		ID:                 o.ID,
		CustomerUser:       o.CustomerID,
		BusinessUser:       o.BusinessID,
		Offer:              o.OfferID,
		OfferDetail:        o.VariantID,
		Title:              o.Title,
		Revisions:          o.Revisions,
		DeliveryTimeInDays: o.DeliveryTimeInDays,
		Price:              o.Price.StringFixed(2),
		Features:           o.Features,
		OfferType:          o.OfferType.String(),
		Status:             o.Status.String(),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}
