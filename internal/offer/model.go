package offer

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type OfferType string

const (
	TypeBasic    OfferType = "basic"
	TypeStandard OfferType = "standard"
	TypePremium  OfferType = "premium"
)

// AllTypes is the full tier set an offer must cover on creation.
var AllTypes = []OfferType{TypeBasic, TypeStandard, TypePremium}

func (t OfferType) Valid() bool {
	return t == TypeBasic || t == TypeStandard || t == TypePremium
}

func (t OfferType) String() string {
	return string(t)
}

type Variant struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	OfferID            uuid.UUID       `json:"offer_id" db:"offer_id"`
	Title              string          `json:"title" db:"title"`
	Price              decimal.Decimal `json:"price" db:"price"`
	DeliveryTimeInDays int             `json:"delivery_time_in_days" db:"delivery_time_in_days"`
	RevisionLimit      int             `json:"revisions" db:"revision_limit"`
	OfferType          OfferType       `json:"offer_type" db:"offer_type"`
	Features           []string        `json:"features" db:"features"`
}

type Offer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"user" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image" db:"image_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Variants    []Variant `json:"details" db:"-"`
}

// MinPrice returns the smallest variant price, or nil when the offer has no
// variants. A zero price is a valid minimum and is not collapsed to nil.
// Always derived from the current variant slice; never cached.
func (o *Offer) MinPrice() *decimal.Decimal {
	if len(o.Variants) == 0 {
		return nil
	}
	min := o.Variants[0].Price
	for _, v := range o.Variants[1:] {
		if v.Price.LessThan(min) {
			min = v.Price
		}
	}
	return &min
}

// MinDeliveryTime returns the smallest delivery time across variants, or nil
// when the offer has no variants.
func (o *Offer) MinDeliveryTime() *int {
	if len(o.Variants) == 0 {
		return nil
	}
	min := o.Variants[0].DeliveryTimeInDays
	for _, v := range o.Variants[1:] {
		if v.DeliveryTimeInDays < min {
			min = v.DeliveryTimeInDays
		}
	}
	return &min
}
