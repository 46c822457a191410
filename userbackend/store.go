package userbackend

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// UsersConfig holds configuration for loading users.
type UsersConfig struct {
	Inline []Credential `mapstructure:"inline" yaml:"inline"` // Inline users from config
	File   string       `mapstructure:"file" yaml:"file"`     // Path to JSON file containing users
}

// NewCredentialStore creates a MapCredentialStore from the given configuration.
// It loads users from both inline config and file (if specified), merging
// them into a single store. File users take precedence over inline users
// if there are duplicates. Entries whose hash is not a bcrypt hash are rejected.
func NewCredentialStore(cfg UsersConfig) (*MapCredentialStore, error) {
	users := make(map[string]string)

	for _, c := range cfg.Inline {
		if c.Username != "" && c.PasswordHash != "" {
			users[c.Username] = c.PasswordHash
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadUsersFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileUsers {
			users[k] = v
		}
	}

	for name, hash := range users {
		if !isBcryptHash(hash) {
			return nil, fmt.Errorf("user %s: password_hash is not a bcrypt hash", name)
		}
	}

	return NewMapCredentialStore(users), nil
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
