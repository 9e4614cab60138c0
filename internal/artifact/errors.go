package artifact

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: bundle may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrMissingManifest    = errors.New("missing manifest: not a complete bundle")
	ErrOffsetOverlap      = errors.New("variable offsets overlap")
	ErrOutOfBounds        = errors.New("variable extends beyond data section")
	ErrUnknownDType       = errors.New("unknown variable dtype")
)

// ValidationError provides detail about a variable table validation failure.
type ValidationError struct {
	Kind     string // e.g. "offset_overlap", "out_of_bounds"
	Variable string
	Details  string
	Err      error // sentinel, when one applies
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("%s: variable %q: %s", e.Kind, e.Variable, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
