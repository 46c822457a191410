package fileit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore looks up stored password hashes.
type CredentialStore interface {
	// PasswordHash returns the bcrypt hash for username, or an error
	// wrapping ErrNotFound.
	PasswordHash(ctx context.Context, username string) (string, error)
}

// UserRepo is a CredentialStore that can also manage accounts.
type UserRepo interface {
	CredentialStore
	Create(ctx context.Context, username, passwordHash string) (User, error)
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]User, error)
}

// Hash compared against when the user does not exist, so unknown and known
// usernames take the same time to reject.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("fileit-dummy-password"), bcrypt.DefaultCost)

// Authenticator checks username/password pairs.
type Authenticator struct {
	store CredentialStore
}

func NewAuthenticator(store CredentialStore) *Authenticator {
	return &Authenticator{store: store}
}

// Check returns nil when password matches the stored hash for username and
// an error wrapping ErrUnauthorized otherwise. Store failures other than
// ErrNotFound are returned as-is.
func (a *Authenticator) Check(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("check credentials: %w: username and password are required", ErrUnauthorized)
	}

	hash, err := a.store.PasswordHash(ctx, username)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return fmt.Errorf("check credentials %s: %w", username, ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("check credentials %s: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("check credentials %s: %w", username, ErrUnauthorized)
	}

	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("hash password: %w: password cannot be empty", ErrInvalidInput)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
