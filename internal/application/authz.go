package application

import (
	"errors"
	"strings"

	"github.com/example/campus-portal/internal/persistence"
)

// requireAuthenticated rejects calls that carry no principal.
func requireAuthenticated(principal Principal) error {
	if strings.TrimSpace(principal.UserID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// requireAdmin is the single guard for administrator-only mutations. Services
// call it before touching any repository.
func requireAdmin(principal Principal) error {
	if err := requireAuthenticated(principal); err != nil {
		return err
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// mapRepoError translates persistence failures into application errors.
// Anything without a more specific meaning becomes a *StoreError.
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, ErrRoomUnavailable), errors.Is(err, ErrInvalidTransition):
		return err
	case errors.Is(err, persistence.ErrStaleWrite):
		return ErrInvalidTransition
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
