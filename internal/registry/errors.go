// internal/registry/errors.go
package registry

import "errors"

// Every operation rejects with exactly one of these kinds. A rejection
// guarantees no state was mutated.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidTiming = errors.New("invalid timing")
	ErrNotFound      = errors.New("product not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrExpired       = errors.New("product expired")
)
