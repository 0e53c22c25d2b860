package snapshot

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is matched by every *InvalidFormatError.
var ErrInvalidFormat = errors.New("snapshot: invalid format")

// InvalidFormatError reports a document that cannot be loaded into an
// engine. The engine is left untouched when it is returned.
type InvalidFormatError struct {
	Reason string
	Err    error
}

func (e *InvalidFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

// Unwrap returns the underlying cause alongside ErrInvalidFormat so both
// match with errors.Is.
func (e *InvalidFormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidFormat, e.Err}
	}
	return []error{ErrInvalidFormat}
}

func invalid(reason string, args ...any) *InvalidFormatError {
	return &InvalidFormatError{Reason: fmt.Sprintf(reason, args...)}
}
