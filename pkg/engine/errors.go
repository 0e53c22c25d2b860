package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrContextOverflow is matched by every *ContextOverflowError.
	ErrContextOverflow = errors.New("engine: context exceeds max tokens")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("engine: invalid config")
)

// ContextOverflowError reports that the non-truncatable part of the context
// (description, examples, flow reset text and the pending input) does not fit
// the token budget. The caller has to shrink that content or raise MaxTokens.
type ContextOverflowError struct {
	Tokens    int
	MaxTokens int
}

func (e *ContextOverflowError) Error() string {
	return fmt.Sprintf("prompt needs %d tokens but max tokens is %d: shorten the description and examples or increase max tokens",
		e.Tokens, e.MaxTokens)
}

// Unwrap lets errors.Is match ErrContextOverflow.
func (e *ContextOverflowError) Unwrap() error {
	return ErrContextOverflow
}
