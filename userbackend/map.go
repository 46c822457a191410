// Package userbackend provides fileit.CredentialStore implementations backed
// by configuration rather than a database.
package userbackend

import (
	"context"
	"fmt"
)

// MapCredentialStore looks password hashes up in an in-memory map.
// Suitable for configuration file-based user lists.
type MapCredentialStore struct {
	users map[string]string
}

// NewMapCredentialStore creates a store from a username to bcrypt hash mapping.
func NewMapCredentialStore(users map[string]string) *MapCredentialStore {
	return &MapCredentialStore{users: users}
}

// PasswordHash returns the stored hash for username.
func (s *MapCredentialStore) PasswordHash(_ context.Context, username string) (string, error) {
	hash, found := s.users[username]
	if !found {
		return "", fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}
	return hash, nil
}

// Len returns the number of configured users.
func (s *MapCredentialStore) Len() int {
	return len(s.users)
}
