package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/review"
)

type ReviewHandler struct {
	reviews  review.Service
	validate *validator.Validate
}

func NewReviewHandler(reviews review.Service, validate *validator.Validate) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, validate: validate}
}

type reviewCreateRequest struct {
	BusinessUser string `json:"business_user" validate:"required,uuid4"`
	Rating       *int   `json:"rating" validate:"required"`
	Description  string `json:"description"`
	Offer        string `json:"offer" validate:"omitempty,uuid4"`
}

type reviewUpdateRequest struct {
	Rating      *int    `json:"rating"`
	Description *string `json:"description"`
}

type reviewResponse struct {
	ID           uuid.UUID     `json:"id"`
	BusinessUser uuid.UUID     `json:"business_user"`
	Reviewer     uuid.UUID     `json:"reviewer"`
	Rating       int           `json:"rating"`
	Description  string        `json:"description"`
	Offer        uuid.NullUUID `json:"offer"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var businessID *uuid.UUID
	if raw := r.URL.Query().Get("business_user_id"); raw != "" {
		id, ok := parseUUIDParam(w, raw)
		if !ok {
			return
		}
		businessID = &id
	}

	reviews, err := h.reviews.List(r.Context(), actor, businessID, r.URL.Query().Get("ordering"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, reviewResponseFrom(&reviews[i]))
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req reviewCreateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	businessID, ok := parseUUIDParam(w, req.BusinessUser)
	if !ok {
		return
	}

	input := review.CreateInput{
		BusinessUserID: businessID,
		Rating:         *req.Rating,
		Description:    req.Description,
	}
	if req.Offer != "" {
		offerID, ok := parseUUIDParam(w, req.Offer)
		if !ok {
			return
		}
		input.OfferID = &offerID
	}

	created, err := h.reviews.Create(r.Context(), actor, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, reviewResponseFrom(created))
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	rv, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reviewResponseFrom(rv))
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	var req reviewUpdateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.reviews.Update(r.Context(), actor, id, review.UpdateInput{
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reviewResponseFrom(updated))
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	if err := h.reviews.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func reviewResponseFrom(rv *review.Review) reviewResponse {
	return reviewResponse{
		ID:           rv.ID,
		BusinessUser: rv.BusinessID,
		Reviewer:     rv.ReviewerID,
		Rating:       rv.Rating,
		Description:  rv.Description,
		Offer:        rv.OfferID,
		CreatedAt:    rv.CreatedAt,
		UpdatedAt:    rv.UpdatedAt,
	}
}
