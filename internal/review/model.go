package review

import (
	"encoding/json"
	"math"
	"time"

	"github.com/gofrs/uuid"
)

// Ratings are not clamped to any range; the column stores whatever integer
// the reviewer sends.
type Review struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Rating      int           `json:"rating" db:"rating"`
	Description string        `json:"description" db:"description"`
	BusinessID  uuid.UUID     `json:"business_user" db:"business_id"`
	ReviewerID  uuid.UUID     `json:"reviewer" db:"reviewer_id"`
	OfferID     uuid.NullUUID `json:"offer" db:"offer_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// AverageRating distinguishes "no reviews yet" from a numeric zero. The
// per-business serialization renders the sentinel "-" instead of null or 0.
type AverageRating struct {
	Value      float64
	HasReviews bool
}

func (a AverageRating) MarshalJSON() ([]byte, error) {
	if !a.HasReviews {
		return json.Marshal("-")
	}
	return json.Marshal(math.Round(a.Value*10) / 10)
}

// Stats is the public base-info payload. Its average uses 0.0 for the
// no-reviews case, unlike the per-business sentinel.
type Stats struct {
	ReviewCount          int     `json:"review_count"`
	AverageRating        float64 `json:"average_rating"`
	BusinessProfileCount int     `json:"business_profile_count"`
	OfferCount           int     `json:"offer_count"`
}
