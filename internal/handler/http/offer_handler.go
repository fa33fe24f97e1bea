package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/config"
	"github.com/Seldir193/coderr-backend/internal/offer"
)

// ownerSource resolves offer owners for the embedded user details.
type ownerSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

type OfferHandler struct {
	offers     offer.Service
	accounts   ownerSource
	validate   *validator.Validate
	pagination config.Pagination
}

func NewOfferHandler(offers offer.Service, accounts ownerSource, validate *validator.Validate, pagination config.Pagination) *OfferHandler {
	return &OfferHandler{offers: offers, accounts: accounts, validate: validate, pagination: pagination}
}

type variantRequest struct {
	Title              *string          `json:"title"`
	Revisions          *int             `json:"revisions"`
	DeliveryTimeInDays *int             `json:"delivery_time_in_days"`
	Price              *decimal.Decimal `json:"price"`
	Features           []string         `json:"features"`
	OfferType          string           `json:"offer_type" validate:"required,oneof=basic standard premium"`
}

type offerCreateRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Image       string           `json:"image"`
	Description string           `json:"description"`
	Details     []variantRequest `json:"details" validate:"required,dive"`
}

type offerUpdateRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Details     []variantRequest `json:"details" validate:"omitempty,dive"`
}

// variantResponse renders prices with two decimal places, as strings.
type variantResponse struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Revisions          int       `json:"revisions"`
	DeliveryTimeInDays int       `json:"delivery_time_in_days"`
	Price              string    `json:"price"`
	Features           []string  `json:"features"`
	OfferType          string    `json:"offer_type"`
}

// variantLink is the compact form used in offer listings.
type variantLink struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type offerUserDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type offerListItem struct {
	ID              uuid.UUID         `json:"id"`
	User            uuid.UUID         `json:"user"`
	Title           string            `json:"title"`
	Image           string            `json:"image"`
	Description     string            `json:"description"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Details         []variantLink     `json:"details"`
	MinPrice        *string           `json:"min_price"`
	MinDeliveryTime *int              `json:"min_delivery_time"`
	UserDetails     *offerUserDetails `json:"user_details,omitempty"`
}

type offerResponse struct {
	ID          uuid.UUID         `json:"id"`
	User        uuid.UUID         `json:"user"`
	Title       string            `json:"title"`
	Image       string            `json:"image"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Details     []variantResponse `json:"details"`
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := offerFilterFromRequest(w, r)
	if !ok {
		return
	}

	offers, err := h.offers.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	page := pageFromRequest(r, h.pagination)
	if !page.InRange(len(offers)) {
		respondWithError(w, http.StatusNotFound, "Invalid page.")
		return
	}
	start, end := page.Bounds(len(offers))

	items := make([]offerListItem, 0, end-start)
	owners := make(map[uuid.UUID]*account.Account)
	for i := start; i < end; i++ {
		o := &offers[i]
		owner, cached := owners[o.OwnerID]
		if !cached {
			owner, err = h.accounts.GetByID(r.Context(), o.OwnerID)
			if err != nil {
				handleServiceError(w, err)
				return
			}
			owners[o.OwnerID] = owner
		}
		items = append(items, offerItemFrom(o, owner))
	}

	respondWithJSON(w, http.StatusOK, paginated(items, len(offers), page))
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if !actor.IsBusiness {
		respondWithError(w, http.StatusForbidden, "Only business users can create offers.")
		return
	}

	var req offerCreateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.offers.Create(r.Context(), actor, offer.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.Image,
		Variants:    variantInputsFrom(req.Details),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, offerResponseFrom(created))
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	o, err := h.offers.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, offerItemFrom(o, nil))
}

func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	var req offerUpdateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.offers.Update(r.Context(), actor, id, offer.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.Image,
		Variants:    variantInputsFrom(req.Details),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, offerResponseFrom(updated))
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	if err := h.offers.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVariant serves a single pricing tier by its own id.
func (h *OfferHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	v, err := h.offers.GetVariant(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, variantResponseFrom(v))
}

func offerFilterFromRequest(w http.ResponseWriter, r *http.Request) (offer.Filter, bool) {
	query := r.URL.Query()
	filter := offer.Filter{
		Search:   query.Get("search"),
		Ordering: query.Get("ordering"),
	}
	if filter.Ordering == "" {
		// Absent param flows through the inverted updated_at mapping and
		// lists oldest-first.
		filter.Ordering = "-updated_at"
	}

	if raw := query.Get("creator_id"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid creator_id parameter")
			return offer.Filter{}, false
		}
		filter.CreatorID = &id
	}
	if raw := query.Get("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid min_price parameter")
			return offer.Filter{}, false
		}
		filter.MinPrice = &price
	}
	if raw := query.Get("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid max_price parameter")
			return offer.Filter{}, false
		}
		filter.MaxPrice = &price
	}
	if raw := query.Get("max_delivery_time"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid max_delivery_time parameter")
			return offer.Filter{}, false
		}
		filter.MaxDeliveryTime = &days
	}
	return filter, true
}

func variantInputsFrom(details []variantRequest) []offer.VariantInput {
	if details == nil {
		return nil
	}
	inputs := make([]offer.VariantInput, 0, len(details))
	for _, d := range details {
		inputs = append(inputs, offer.VariantInput{
			Title:              d.Title,
			Price:              d.Price,
			Revisions:          d.Revisions,
			DeliveryTimeInDays: d.DeliveryTimeInDays,
			Features:           d.Features,
			OfferType:          offer.OfferType(d.OfferType),
		})
	}
	return inputs
}

func offerItemFrom(o *offer.Offer, owner *account.Account) offerListItem {
	links := make([]variantLink, 0, len(o.Variants))
	for _, v := range o.Variants {
		links = append(links, variantLink{
			ID:  v.ID,
			URL: fmt.Sprintf("/offerdetails/%s/", v.ID),
		})
	}

	item := offerListItem{
		ID:              o.ID,
		User:            o.OwnerID,
		Title:           o.Title,
		Image:           o.ImageURL,
		Description:     o.Description,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Details:         links,
		MinDeliveryTime: o.MinDeliveryTime(),
	}
	if mp := o.MinPrice(); mp != nil {
		formatted := mp.StringFixed(2)
		item.MinPrice = &formatted
	}
	if owner != nil {
		item.UserDetails = &offerUserDetails{
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Username:  owner.Username,
		}
	}
	return item
}

func offerResponseFrom(o *offer.Offer) offerResponse {
	details := make([]variantResponse, 0, len(o.Variants))
	for i := range o.Variants {
		details = append(details, variantResponseFrom(&o.Variants[i]))
	}
	return offerResponse{
		ID:          o.ID,
		User:        o.OwnerID,
		Title:       o.Title,
		Image:       o.ImageURL,
		Description: o.Description,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Details:     details,
	}
}

func variantResponseFrom(v *offer.Variant) variantResponse {
	return variantResponse{
		ID:                 v.ID,
		Title:              v.Title,
		Revisions:          v.RevisionLimit,
		DeliveryTimeInDays: v.DeliveryTimeInDays,
		Price:              v.Price.StringFixed(2),
		Features:           v.Features,
		OfferType:          v.OfferType.String(),
	}
}
