package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/matchserver/internal/account"
)

// AccountRepository implements account.Store against PostgreSQL. Unlike the
// flat-file store, passwords are kept as bcrypt hashes rather than clear text.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account with a bcrypt-hashed password.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created account, or account.ErrAccountExists if
// the name is taken. The insert is committed before returning.
func (r *AccountRepository) Create(ctx context.Context, name, password string) (account.Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return account.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO accounts (name, password_hash) VALUES ($1, $2)`,
		name, hash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return account.Account{}, account.ErrAccountExists
		}
		return account.Account{}, fmt.Errorf("inserting account: %w", err)
	}

	return account.Account{Name: name, Password: password}, nil
}

// Authenticate verifies credentials and returns the matching account.
//
// Postcondition: Returns the account if credentials are valid,
// account.ErrAccountNotFound if the name doesn't exist, or
// account.ErrInvalidCredentials if the password is wrong.
func (r *AccountRepository) Authenticate(ctx context.Context, name, password string) (account.Account, error) {
	var hash string
	err := r.db.QueryRow(ctx,
		`SELECT password_hash FROM accounts WHERE name = $1`,
		name,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("querying account: %w", err)
	}

	if !CheckPassword(password, hash) {
		return account.Account{}, account.ErrInvalidCredentials
	}

	return account.Account{Name: name, Password: password}, nil
}

// Count returns the number of stored accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return n, nil
}

// HashPassword creates a bcrypt hash of the given password.
//
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
