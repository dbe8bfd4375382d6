package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTooManyTokens      = errors.New("too many tokens in file")
	ErrTokenCountMismatch = errors.New("token count does not match header")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "duplicate_token", "bad_merge")
	Token   string // Token involved, if any
	ID      int32  // Id involved, or -1
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: token %q (id %d): %s", e.Type, e.Token, e.ID, e.Details)
	}
	if e.ID >= 0 {
		return fmt.Sprintf("%s: id %d: %s", e.Type, e.ID, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
