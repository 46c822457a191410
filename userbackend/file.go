package userbackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// Credential is a username with its bcrypt password hash.
type Credential struct {
	Username     string `json:"username" mapstructure:"username" yaml:"username"`
	PasswordHash string `json:"password_hash" mapstructure:"password_hash" yaml:"password_hash"`
}

// LoadUsersFromFile loads credentials from a JSON file.
// The file should contain an array of credentials:
//
//	[
//	  {"username": "kirat", "password_hash": "$2a$10$..."},
//	  {"username": "editor", "password_hash": "$2a$10$..."}
//	]
//
// Returns a map of username to password hash.
func LoadUsersFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var creds []Credential
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	users := make(map[string]string, len(creds))
	for _, c := range creds {
		if c.Username != "" && c.PasswordHash != "" {
			users[c.Username] = c.PasswordHash
		}
	}

	return users, nil
}
