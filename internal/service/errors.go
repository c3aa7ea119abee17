// Package service holds the flows that sit between the HTTP handlers and the
// stores: registration and login, booking validation and event publishing.
package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login when the password does not
	// match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when an operation needs an identity
	// and none (or a stale one) was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports client input the booking flow refused.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid booking: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(msg string) { e.Problems = append(e.Problems, msg) }
