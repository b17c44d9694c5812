package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/campus-portal/internal/availability"
)

var (
	// ErrForbidden is returned when a non-administrator attempts an administrator-only operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrUnauthenticated is returned when no valid principal accompanies the call.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrRoomUnavailable is returned when a booking overlaps an existing pending or approved booking.
	ErrRoomUnavailable = errors.New("application: room unavailable")
	// ErrInvalidTransition is returned when a booking is no longer pending.
	ErrInvalidTransition = availability.ErrInvalidTransition
	// ErrInvalidCredentials is returned when login details do not match a user.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError lists the bookings that make a requested interval unavailable.
type ConflictError struct {
	RoomID    string
	Conflicts []Booking
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("room %s unavailable: %d conflicting bookings", e.RoomID, len(e.Conflicts))
}

// Unwrap lets errors.Is match ErrRoomUnavailable.
func (e *ConflictError) Unwrap() error {
	return ErrRoomUnavailable
}

// StoreError wraps a repository failure that has no more specific meaning.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
