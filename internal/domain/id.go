package domain

import "github.com/oklog/ulid/v2"

// NewID returns a new monotonic ULID. Lexical order of ids follows creation
// order, which the message store relies on to find the most recent message.
func NewID() string {
	return ulid.Make().String()
}

// ValidateID reports ErrMalformedID unless id is a well-formed ULID.
func ValidateID(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return ErrMalformedID
	}
	return nil
}
