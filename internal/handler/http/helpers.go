package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/offer"
	"github.com/Seldir193/coderr-backend/internal/order"
	"github.com/Seldir193/coderr-backend/internal/review"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"detail": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation on it, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			details[fieldErr.Field()] = "This field is required"
		case "email":
			details[fieldErr.Field()] = "Must be a valid email address"
		case "eqfield":
			details[fieldErr.Field()] = "Passwords do not match"
		case "min":
			details[fieldErr.Field()] = "Value is too short or too small"
		case "oneof":
			details[fieldErr.Field()] = "Value is not one of the allowed choices"
		default:
			details[fieldErr.Field()] = "Invalid value"
		}
	}
	return details
}

func parseUUIDParam(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, account.ErrProfileNotFound),
		errors.Is(err, offer.ErrNotFound),
		errors.Is(err, offer.ErrVariantNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrBusinessUserNotFound),
		errors.Is(err, review.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrForbidden),
		errors.Is(err, offer.ErrForbidden),
		errors.Is(err, order.ErrNotCustomer),
		errors.Is(err, order.ErrNotBusiness),
		errors.Is(err, review.ErrNotCustomer),
		errors.Is(err, review.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, offer.ErrValidation),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrVariantGone),
		errors.Is(err, review.ErrNotBusinessUser),
		errors.Is(err, review.ErrAlreadyReviewed),
		errors.Is(err, account.ErrUsernameTaken),
		errors.Is(err, account.ErrEmailTaken),
		errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrUnknownProfileType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError converts a domain error into the client-facing
// response. Internal errors are logged and flattened to a generic message
// so nothing unexpected leaks out of the handler.
func handleServiceError(w http.ResponseWriter, err error) {
	statusCode := mapErrorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Unexpected service error")
		respondWithError(w, statusCode, "An unexpected error occurred.")
		return
	}
	respondWithError(w, statusCode, err.Error())
}
