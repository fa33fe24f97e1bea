package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound        = errors.New("account not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already in use")
)

type Repository interface {
	CreateWithProfile(ctx context.Context, acct *Account, profileType ProfileType, business *BusinessProfile, customer *CustomerProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Update(ctx context.Context, acct *Account) error

	GetBusinessProfile(ctx context.Context, accountID uuid.UUID) (*BusinessProfile, error)
	GetCustomerProfile(ctx context.Context, accountID uuid.UUID) (*CustomerProfile, error)
	UpdateBusinessProfile(ctx context.Context, profile *BusinessProfile) error
	UpdateCustomerProfile(ctx context.Context, profile *CustomerProfile) error
	ListBusinessProfiles(ctx context.Context) ([]Profile, error)
	ListCustomerProfiles(ctx context.Context) ([]Profile, error)

	HasBusinessProfile(ctx context.Context, accountID uuid.UUID) (bool, error)
	HasCustomerProfile(ctx context.Context, accountID uuid.UUID) (bool, error)
	CountBusinessProfiles(ctx context.Context) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateWithProfile(ctx context.Context, acct *Account, profileType ProfileType, business *BusinessProfile, customer *CustomerProfile) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback account creation")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	queryAccount := `
		INSERT INTO accounts (id, username, email, password_hash, first_name, last_name, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, queryAccount,
		acct.ID, acct.Username, acct.Email, acct.PasswordHash,
		acct.FirstName, acct.LastName, acct.IsStaff,
	).Scan(&acct.CreatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("repository: failed to insert account: %w", err)
	}

	switch profileType {
	case ProfileBusiness:
		queryProfile := `
			INSERT INTO business_profiles (id, account_id, company_name, company_address, description, tel, location, working_hours, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at
		`
		err = tx.QueryRow(ctx, queryProfile,
			business.ID, acct.ID, business.CompanyName, business.CompanyAddress,
			business.Description, business.Tel, business.Location,
			business.WorkingHours, business.ImageURL,
		).Scan(&business.CreatedAt)
	case ProfileCustomer:
		queryProfile := `
			INSERT INTO customer_profiles (id, account_id, first_name, last_name, image_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at
		`
		err = tx.QueryRow(ctx, queryProfile,
			customer.ID, acct.ID, customer.FirstName, customer.LastName, customer.ImageURL,
		).Scan(&customer.CreatedAt)
	default:
		err = fmt.Errorf("repository: unknown profile type %q", profileType)
	}
	if err != nil {
		return fmt.Errorf("repository: failed to insert %s profile: %w", profileType, err)
	}

	return nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrUsernameTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		}
	}
	return nil
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, is_staff, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var acct Account
	err := row.Scan(
		&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash,
		&acct.FirstName, &acct.LastName, &acct.IsStaff, &acct.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan account: %w", err)
	}
	return &acct, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return scanAccount(r.db.QueryRow(ctx, query, username))
}

func (r *postgresRepository) Update(ctx context.Context, acct *Account) error {
	query := `
		UPDATE accounts
		SET email = $1, first_name = $2, last_name = $3
		WHERE id = $4
	`
	cmdTag, err := r.db.Exec(ctx, query, acct.Email, acct.FirstName, acct.LastName, acct.ID)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("repository: failed to update account %s: %w", acct.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) GetBusinessProfile(ctx context.Context, accountID uuid.UUID) (*BusinessProfile, error) {
	query := `
		SELECT id, account_id, company_name, company_address, description, tel, location, working_hours, image_url, created_at
		FROM business_profiles
		WHERE account_id = $1
	`
	var p BusinessProfile
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&p.ID, &p.AccountID, &p.CompanyName, &p.CompanyAddress, &p.Description,
		&p.Tel, &p.Location, &p.WorkingHours, &p.ImageURL, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("repository: failed to select business profile for %s: %w", accountID, err)
	}
	return &p, nil
}

func (r *postgresRepository) GetCustomerProfile(ctx context.Context, accountID uuid.UUID) (*CustomerProfile, error) {
	query := `
		SELECT id, account_id, first_name, last_name, image_url, created_at
		FROM customer_profiles
		WHERE account_id = $1
	`
	var p CustomerProfile
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.ImageURL, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer profile for %s: %w", accountID, err)
	}
	return &p, nil
}

func (r *postgresRepository) UpdateBusinessProfile(ctx context.Context, profile *BusinessProfile) error {
	query := `
		UPDATE business_profiles
		SET company_name = $1, company_address = $2, description = $3, tel = $4,
		    location = $5, working_hours = $6, image_url = $7
		WHERE account_id = $8
	`
	cmdTag, err := r.db.Exec(ctx, query,
		profile.CompanyName, profile.CompanyAddress, profile.Description, profile.Tel,
		profile.Location, profile.WorkingHours, profile.ImageURL, profile.AccountID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update business profile for %s: %w", profile.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateCustomerProfile(ctx context.Context, profile *CustomerProfile) error {
	query := `
		UPDATE customer_profiles
		SET first_name = $1, last_name = $2, image_url = $3
		WHERE account_id = $4
	`
	cmdTag, err := r.db.Exec(ctx, query,
		profile.FirstName, profile.LastName, profile.ImageURL, profile.AccountID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update customer profile for %s: %w", profile.AccountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *postgresRepository) ListBusinessProfiles(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT a.id, a.username, a.email, a.password_hash, a.first_name, a.last_name, a.is_staff, a.created_at,
		       p.id, p.account_id, p.company_name, p.company_address, p.description, p.tel, p.location, p.working_hours, p.image_url, p.created_at
		FROM business_profiles p
		JOIN accounts a ON a.id = p.account_id
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query business profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var acct Account
		var p BusinessProfile
		err := rows.Scan(
			&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash,
			&acct.FirstName, &acct.LastName, &acct.IsStaff, &acct.CreatedAt,
			&p.ID, &p.AccountID, &p.CompanyName, &p.CompanyAddress, &p.Description,
			&p.Tel, &p.Location, &p.WorkingHours, &p.ImageURL, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan business profile: %w", err)
		}
		profiles = append(profiles, Profile{Account: acct, Type: ProfileBusiness, Business: &p})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating business profiles: %w", err)
	}
	return profiles, nil
}

func (r *postgresRepository) ListCustomerProfiles(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT a.id, a.username, a.email, a.password_hash, a.first_name, a.last_name, a.is_staff, a.created_at,
		       p.id, p.account_id, p.first_name, p.last_name, p.image_url, p.created_at
		FROM customer_profiles p
		JOIN accounts a ON a.id = p.account_id
		ORDER BY p.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customer profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var acct Account
		var p CustomerProfile
		err := rows.Scan(
			&acct.ID, &acct.Username, &acct.Email, &acct.PasswordHash,
			&acct.FirstName, &acct.LastName, &acct.IsStaff, &acct.CreatedAt,
			&p.ID, &p.AccountID, &p.FirstName, &p.LastName, &p.ImageURL, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer profile: %w", err)
		}
		profiles = append(profiles, Profile{Account: acct, Type: ProfileCustomer, Customer: &p})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating customer profiles: %w", err)
	}
	return profiles, nil
}

func (r *postgresRepository) HasBusinessProfile(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM business_profiles WHERE account_id = $1)`, accountID)
}

func (r *postgresRepository) HasCustomerProfile(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customer_profiles WHERE account_id = $1)`, accountID)
}

func (r *postgresRepository) exists(ctx context.Context, query string, accountID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("repository: failed to check profile existence for %s: %w", accountID, err)
	}
	return exists, nil
}

func (r *postgresRepository) CountBusinessProfiles(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM business_profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count business profiles: %w", err)
	}
	return count, nil
}
