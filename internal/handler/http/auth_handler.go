package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
)

// tokenIssuer is the part of the token manager the auth handler needs.
type tokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type AuthHandler struct {
	accounts account.Service
	tokens   tokenIssuer
	validate *validator.Validate
}

func NewAuthHandler(accounts account.Service, tokens tokenIssuer, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, validate: validate}
}

type registrationRequest struct {
	Username         string `json:"username" validate:"required,min=3,max=150"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	RepeatedPassword string `json:"repeated_password" validate:"required,eqfield=Password"`
	Type             string `json:"type" validate:"required,oneof=business customer"`
	FirstName        string `json:"first_name" validate:"omitempty,max=150"`
	LastName         string `json:"last_name" validate:"omitempty,max=150"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token    string    `json:"token"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// Register creates the account together with its role profile and hands the
// client a token right away, so registration doubles as a first login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	acct, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Type:      account.ProfileType(req.Type),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleRegistrationError(w, err)
		return
	}

	token, err := h.tokens.Issue(acct.ID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to issue token after registration")
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respondWithJSON(w, http.StatusCreated, authResponse{
		Token:    token,
		UserID:   acct.ID,
		Username: acct.Username,
		Email:    acct.Email,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	acct, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(acct.ID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to issue token on login")
		respondWithError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Token:    token,
		UserID:   acct.ID,
		Username: acct.Username,
		Email:    acct.Email,
	})
}

// handleRegistrationError keys uniqueness violations by field name so the
// client can attach them to the right form input.
func handleRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"username": "A user with that username already exists."},
		})
	case errors.Is(err, account.ErrEmailTaken):
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"email": "A user with that email already exists."},
		})
	default:
		handleServiceError(w, err)
	}
}
