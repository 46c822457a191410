package userbackend

import (
	"fmt"

	"github.com/kiratsolutions/fileit"
)

// ErrUserNotFound is returned when the username does not exist in the store.
var ErrUserNotFound = fmt.Errorf("user %w", fileit.ErrNotFound)
