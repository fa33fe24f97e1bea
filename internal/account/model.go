package account

import (
	"time"

	"github.com/gofrs/uuid"
)

type ProfileType string

const (
	ProfileBusiness ProfileType = "business"
	ProfileCustomer ProfileType = "customer"
)

func (t ProfileType) Valid() bool {
	return t == ProfileBusiness || t == ProfileCustomer
}

type Account struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type BusinessProfile struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AccountID      uuid.UUID `json:"account_id" db:"account_id"`
	CompanyName    string    `json:"company_name" db:"company_name"`
	CompanyAddress string    `json:"company_address" db:"company_address"`
	Description    string    `json:"description" db:"description"`
	Tel            string    `json:"tel" db:"tel"`
	Location       string    `json:"location" db:"location"`
	WorkingHours   string    `json:"working_hours" db:"working_hours"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type CustomerProfile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Profile is the combined account/profile view used by the profile
// endpoints. Exactly one of Business or Customer is set when Type is known;
// both are nil for accounts that hold no profile row.
type Profile struct {
	Account  Account
	Type     ProfileType
	Business *BusinessProfile
	Customer *CustomerProfile
}
