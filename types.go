package fileit

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Content types accepted by UploadContent.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeJSON = "application/json"
	ContentTypeJPEG = "image/jpeg"
)

// PageImageExt is the extension of every stored page image.
const PageImageExt = ".jpg"

// ObjectInfo describes a stored object as reported by the storage backend.
type ObjectInfo struct {
	Path         string    `json:"path"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

type ListResult struct {
	Items []ObjectInfo `json:"items"`
}

// Upload is a document to convert into page images.
type Upload struct {
	Book        string
	ContentType string
	// Prefix is the object path prefix for page images. Defaults to "<Book>/Images/".
	Prefix string
	Body   io.Reader
}

type UploadResult struct {
	Pages []string `json:"pages"`
}

type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Tables holds configurable table names for the users database.
type Tables struct {
	Users string `mapstructure:"users" yaml:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Users == "" {
		return errors.New("validate tables: users table name cannot be empty")
	}

	if !IsValidTableName(t.Users) {
		return fmt.Errorf("validate tables: invalid users table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Users)
	}

	return nil
}

// User is an account allowed to log in.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
