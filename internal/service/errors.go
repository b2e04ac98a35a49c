// Package service implements the lodging and user operations on top of
// the two store gateways, including the cross-store sequence that links
// a new lodging to its owner.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a payload missing a required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a lodging or user that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStore marks any failure of an underlying store.  The driver error
	// is joined to it for logging; callers must not show it to clients.
	ErrStore = errors.New("store error")
)

// InvalidOwnerError is returned by LodgingService.Create when the ownerID
// does not resolve to a user.
type InvalidOwnerError struct {
	OwnerID string
}

func (e *InvalidOwnerError) Error() string {
	return fmt.Sprintf("invalid owner ID: %s", e.OwnerID)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
