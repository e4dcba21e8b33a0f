// Package idempotency implements the gate that makes task submission safe
// to retry: the first request for a key claims a reservation and records
// its response; retries replay that response verbatim.
package idempotency

import (
	"errors"
	"fmt"
)

// maxKeyLength bounds client-supplied keys. The key is treated as an opaque
// token scoped per owner; only emptiness and length are checked here.
const maxKeyLength = 50

// ErrInvalidKey is returned when a client-supplied idempotency key fails
// validation. This is a plain validation error, not an idempotency concern.
var ErrInvalidKey = errors.New("invalid idempotency key")

// Key is a validated client-supplied idempotency token.
type Key string

// NewKey validates the given string and returns it as a Key.
func NewKey(raw string) (Key, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}

	if len(raw) > maxKeyLength {
		return "", fmt.Errorf("%w: key exceeds %d characters", ErrInvalidKey, maxKeyLength)
	}

	return Key(raw), nil
}

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}
