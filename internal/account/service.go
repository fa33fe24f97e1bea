package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Seldir193/coderr-backend/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("not allowed to modify this profile")
	ErrUnknownProfileType = errors.New("unknown profile type")
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Type      ProfileType
	FirstName string
	LastName  string
}

// ProfileUpdate carries the PATCH payload for the flat profile endpoints.
// Nil fields keep their prior values.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Location     *string
	Tel          *string
	Description  *string
	WorkingHours *string
	CompanyName  *string
	ImageURL     *string
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Account, error)
	Login(ctx context.Context, username, password string) (*Account, error)
	ActorFor(ctx context.Context, accountID uuid.UUID) (auth.Actor, error)

	GetProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, accountID uuid.UUID, upd ProfileUpdate) (*Profile, error)
	ListBusinessProfiles(ctx context.Context) ([]Profile, error)
	ListCustomerProfiles(ctx context.Context) ([]Profile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if !input.Type.Valid() {
		return nil, ErrUnknownProfileType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	accountID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate account id: %w", err)
	}
	profileID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate profile id: %w", err)
	}

	acct := &Account{
		ID:           accountID,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}

	var business *BusinessProfile
	var customer *CustomerProfile
	switch input.Type {
	case ProfileBusiness:
		business = &BusinessProfile{
			ID:             profileID,
			AccountID:      accountID,
			CompanyName:    "Default Company",
			CompanyAddress: "Default Address",
		}
	case ProfileCustomer:
		customer = &CustomerProfile{
			ID:        profileID,
			AccountID: accountID,
			FirstName: input.FirstName,
			LastName:  input.LastName,
		}
	}

	if err := s.repo.CreateWithProfile(ctx, acct, input.Type, business, customer); err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		log.Error().Err(err).Str("username", input.Username).Msg("service: failed to register account")
		return nil, fmt.Errorf("service: failed to register account: %w", err)
	}

	log.Info().Stringer("account_id", acct.ID).Str("type", string(input.Type)).Msg("service: account registered")
	return acct, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*Account, error) {
	acct, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: failed to fetch account for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// ActorFor resolves the structural role flags of an account. Presence of a
// profile row is the role, there is no stored role column.
func (s *service) ActorFor(ctx context.Context, accountID uuid.UUID) (auth.Actor, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return auth.Actor{}, err
	}

	isBusiness, err := s.repo.HasBusinessProfile(ctx, accountID)
	if err != nil {
		return auth.Actor{}, err
	}
	isCustomer, err := s.repo.HasCustomerProfile(ctx, accountID)
	if err != nil {
		return auth.Actor{}, err
	}

	return auth.Actor{
		ID:         acct.ID,
		Username:   acct.Username,
		IsStaff:    acct.IsStaff,
		IsBusiness: isBusiness,
		IsCustomer: isCustomer,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Account: *acct}

	business, err := s.repo.GetBusinessProfile(ctx, accountID)
	if err == nil {
		profile.Type = ProfileBusiness
		profile.Business = business
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	customer, err := s.repo.GetCustomerProfile(ctx, accountID)
	if err == nil {
		profile.Type = ProfileCustomer
		profile.Customer = customer
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	return nil, ErrProfileNotFound
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Actor, accountID uuid.UUID, upd ProfileUpdate) (*Profile, error) {
	if !actor.IsOwnerOrAdmin(accountID) {
		return nil, ErrForbidden
	}

	profile, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	acct := profile.Account
	applyString(&acct.FirstName, upd.FirstName)
	applyString(&acct.LastName, upd.LastName)
	applyString(&acct.Email, upd.Email)
	if err := s.repo.Update(ctx, &acct); err != nil {
		return nil, err
	}
	profile.Account = acct

	switch profile.Type {
	case ProfileBusiness:
		p := *profile.Business
		applyString(&p.Location, upd.Location)
		applyString(&p.Tel, upd.Tel)
		applyString(&p.Description, upd.Description)
		applyString(&p.WorkingHours, upd.WorkingHours)
		applyString(&p.CompanyName, upd.CompanyName)
		applyString(&p.ImageURL, upd.ImageURL)
		if err := s.repo.UpdateBusinessProfile(ctx, &p); err != nil {
			return nil, err
		}
		profile.Business = &p
	case ProfileCustomer:
		p := *profile.Customer
		applyString(&p.FirstName, upd.FirstName)
		applyString(&p.LastName, upd.LastName)
		applyString(&p.ImageURL, upd.ImageURL)
		if err := s.repo.UpdateCustomerProfile(ctx, &p); err != nil {
			return nil, err
		}
		profile.Customer = &p
	}

	log.Info().Stringer("account_id", accountID).Msg("service: profile updated")
	return profile, nil
}

func (s *service) ListBusinessProfiles(ctx context.Context) ([]Profile, error) {
	profiles, err := s.repo.ListBusinessProfiles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list business profiles")
		return nil, fmt.Errorf("service: failed to list business profiles: %w", err)
	}
	return profiles, nil
}

func (s *service) ListCustomerProfiles(ctx context.Context) ([]Profile, error) {
	profiles, err := s.repo.ListCustomerProfiles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customer profiles")
		return nil, fmt.Errorf("service: failed to list customer profiles: %w", err)
	}
	return profiles, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
