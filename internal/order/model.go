package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/Seldir193/coderr-backend/internal/offer"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Known reports whether the status is one of the four recognized values.
// Transitions between known statuses are not restricted.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Order is a copy-on-create snapshot of the chosen variant. The snapshot
// fields are written once at creation and never re-derived, so they survive
// later edits or deletion of the source variant (VariantID goes null on
// variant delete, the copied fields stay).
type Order struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	CustomerID         uuid.UUID       `json:"customer_user" db:"customer_id"`
	BusinessID         uuid.UUID       `json:"business_user" db:"business_id"`
	OfferID            uuid.UUID       `json:"offer" db:"offer_id"`
	VariantID          uuid.NullUUID   `json:"offer_detail" db:"variant_id"`
	Title              string          `json:"title" db:"title"`
	Revisions          int             `json:"revisions" db:"revisions"`
	DeliveryTimeInDays int             `json:"delivery_time_in_days" db:"delivery_time_in_days"`
	Price              decimal.Decimal `json:"price" db:"price"`
	Features           []string        `json:"features" db:"features"`
	OfferType          offer.OfferType `json:"offer_type" db:"offer_type"`
	Status             Status          `json:"status" db:"status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// hydrateSnapshot back-fills any snapshot field still missing from the
// source offer and variant. Deliberately called once at creation instead of
// hiding inside a save hook; missing fields are filled, never rejected.
func hydrateSnapshot(o *Order, src *offer.Offer, variant *offer.Variant) {
	if o.BusinessID == uuid.Nil && src != nil {
		o.BusinessID = src.OwnerID
	}
	if o.Title == "" {
		if variant != nil && variant.Title != "" {
			o.Title = variant.Title
		} else if src != nil {
			o.Title = src.Title
		}
	}
	if variant != nil {
		if o.Price.IsZero() {
			o.Price = variant.Price
		}
		if o.DeliveryTimeInDays == 0 {
			o.DeliveryTimeInDays = variant.DeliveryTimeInDays
		}
		if o.Revisions == 0 {
			o.Revisions = variant.RevisionLimit
		}
		if len(o.Features) == 0 {
			// Copied, not aliased; the snapshot must not see later edits.
			o.Features = append([]string(nil), variant.Features...)
		}
		if o.OfferType == "" {
			o.OfferType = variant.OfferType
		}
	}
	if o.Features == nil {
		o.Features = make([]string, 0)
	}
}
