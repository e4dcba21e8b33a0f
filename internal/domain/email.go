package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// Email is a validated email address. Delivery-queue rows store recipient
// addresses as raw strings; the worker parses them into this type just
// before sending, since a profile's stored contact details may have been
// invalid at signup time even though the profile is confirmed.
type Email string

// ParseEmail validates the given string and returns it as an Email.
// Returns ErrInvalidEmail (wrapped with the offending value) if the
// address is malformed.
func ParseEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}

	// Reject addresses with a display name ("Bob <bob@example.com>");
	// stored contact details must be a bare address.
	if addr.Address != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}

	return Email(addr.Address), nil
}

// String returns the address as a plain string.
func (e Email) String() string {
	return string(e)
}
