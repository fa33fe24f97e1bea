package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/review"
)

type ProfileHandler struct {
	accounts account.Service
	reviews  review.Service
	validate *validator.Validate
}

func NewProfileHandler(accounts account.Service, reviews review.Service, validate *validator.Validate) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, reviews: reviews, validate: validate}
}

// profileResponse is the flat shape served by the /profile/{pk}/ endpoints.
// Business and customer profiles share it; fields the role does not carry
// stay empty strings rather than being omitted.
type profileResponse struct {
	User         uuid.UUID `json:"user"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	File         string    `json:"file"`
	Location     string    `json:"location"`
	Tel          string    `json:"tel"`
	Description  string    `json:"description"`
	WorkingHours string    `json:"working_hours"`
	Type         string    `json:"type"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

type profileUser struct {
	PK        uuid.UUID `json:"pk"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// businessListItem is one entry of the business profile listing.
type businessListItem struct {
	User         profileUser `json:"user"`
	File         string      `json:"file"`
	Location     string      `json:"location"`
	Tel          string      `json:"tel"`
	Description  string      `json:"description"`
	WorkingHours string      `json:"working_hours"`
	Type         string      `json:"type"`
}

// businessDetail extends the list item with review and workload figures.
type businessDetail struct {
	businessListItem
	AvgRating     review.AverageRating `json:"avg_rating"`
	PendingOrders int                  `json:"pending_orders"`
}

type customerListItem struct {
	User       profileUser `json:"user"`
	File       string      `json:"file"`
	UploadedAt time.Time   `json:"uploaded_at"`
	Type       string      `json:"type"`
}

type profileUpdateRequest struct {
	FirstName    *string `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string `json:"last_name" validate:"omitempty,max=150"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Location     *string `json:"location"`
	Tel          *string `json:"tel"`
	Description  *string `json:"description"`
	WorkingHours *string `json:"working_hours"`
	CompanyName  *string `json:"company_name"`
	File         *string `json:"file"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, chi.URLParam(r, "pk"))
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, flattenProfile(profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, chi.URLParam(r, "pk"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	var req profileUpdateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), actor, accountID, account.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Location:     req.Location,
		Tel:          req.Tel,
		Description:  req.Description,
		WorkingHours: req.WorkingHours,
		CompanyName:  req.CompanyName,
		ImageURL:     req.File,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, flattenProfile(profile))
}

func (h *ProfileHandler) ListBusiness(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.accounts.ListBusinessProfiles(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]businessListItem, 0, len(profiles))
	for i := range profiles {
		items = append(items, businessItemFrom(&profiles[i]))
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *ProfileHandler) ListCustomer(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.accounts.ListCustomerProfiles(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]customerListItem, 0, len(profiles))
	for i := range profiles {
		items = append(items, customerItemFrom(&profiles[i]))
	}
	respondWithJSON(w, http.StatusOK, items)
}

// GetBusiness serves the typed business detail, including the average
// rating and the count of orders still in progress.
func (h *ProfileHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, chi.URLParam(r, "pk"))
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if profile.Type != account.ProfileBusiness {
		respondWithError(w, http.StatusNotFound, "Business profile not found")
		return
	}

	avg, err := h.reviews.AverageRating(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pending, err := h.reviews.PendingOrdersCount(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, businessDetail{
		businessListItem: businessItemFrom(profile),
		AvgRating:        avg,
		PendingOrders:    pending,
	})
}

// UpdateBusiness patches a business profile through the typed endpoint.
func (h *ProfileHandler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	h.updateTyped(w, r, account.ProfileBusiness)
}

func (h *ProfileHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	h.updateTyped(w, r, account.ProfileCustomer)
}

func (h *ProfileHandler) updateTyped(w http.ResponseWriter, r *http.Request, want account.ProfileType) {
	accountID, ok := parseUUIDParam(w, chi.URLParam(r, "pk"))
	if !ok {
		return
	}
	actor, _ := auth.ActorFromContext(r.Context())

	current, err := h.accounts.GetProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if current.Type != want {
		respondWithError(w, http.StatusNotFound, string(want)+" profile not found")
		return
	}

	var req profileUpdateRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), actor, accountID, account.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Location:     req.Location,
		Tel:          req.Tel,
		Description:  req.Description,
		WorkingHours: req.WorkingHours,
		CompanyName:  req.CompanyName,
		ImageURL:     req.File,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if want == account.ProfileBusiness {
		respondWithJSON(w, http.StatusOK, businessItemFrom(profile))
		return
	}
	respondWithJSON(w, http.StatusOK, customerItemFrom(profile))
}

func (h *ProfileHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := parseUUIDParam(w, chi.URLParam(r, "pk"))
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(r.Context(), accountID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if profile.Type != account.ProfileCustomer {
		respondWithError(w, http.StatusNotFound, "Customer profile not found")
		return
	}

	respondWithJSON(w, http.StatusOK, customerItemFrom(profile))
}

func flattenProfile(p *account.Profile) profileResponse {
	resp := profileResponse{
		User:      p.Account.ID,
		Username:  p.Account.Username,
		FirstName: p.Account.FirstName,
		LastName:  p.Account.LastName,
		Type:      string(p.Type),
		Email:     p.Account.Email,
		CreatedAt: p.Account.CreatedAt,
	}
	if p.Business != nil {
		resp.File = p.Business.ImageURL
		resp.Location = p.Business.Location
		resp.Tel = p.Business.Tel
		resp.Description = p.Business.Description
		resp.WorkingHours = p.Business.WorkingHours
	}
	if p.Customer != nil {
		resp.File = p.Customer.ImageURL
	}
	return resp
}

func businessItemFrom(p *account.Profile) businessListItem {
	item := businessListItem{
		User: profileUser{
			PK:        p.Account.ID,
			Username:  p.Account.Username,
			FirstName: p.Account.FirstName,
			LastName:  p.Account.LastName,
		},
		Type: string(account.ProfileBusiness),
	}
	if p.Business != nil {
		item.File = p.Business.ImageURL
		item.Location = p.Business.Location
		item.Tel = p.Business.Tel
		item.Description = p.Business.Description
		item.WorkingHours = p.Business.WorkingHours
	}
	return item
}

func customerItemFrom(p *account.Profile) customerListItem {
	item := customerListItem{
		User: profileUser{
			PK:        p.Account.ID,
			Username:  p.Account.Username,
			FirstName: p.Account.FirstName,
			LastName:  p.Account.LastName,
		},
		Type: string(account.ProfileCustomer),
	}
	if p.Customer != nil {
		item.File = p.Customer.ImageURL
		item.UploadedAt = p.Customer.CreatedAt
	}
	return item
}
