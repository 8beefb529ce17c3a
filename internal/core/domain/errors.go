package domain

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidName = errors.New("invalid name")
	ErrNotFound    = errors.New("not found")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9._:/-]+$`)

// ValidateName checks identifiers used for tenants, schema names and
// report IDs.
func ValidateName(name string) error {
	if name == "" || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}
