package engine

import "fmt"

// DefaultMaxTokens is the token budget used when none is configured.
const DefaultMaxTokens = 4096

// Kind identifies an engine variant. Snapshots carry it and refuse to load
// into an engine of a different kind.
type Kind string

const (
	KindPrompt Kind = "prompt-engine"
	KindChat   Kind = "chat-engine"
	KindCode   Kind = "code-engine"
)

// Config controls how text is rendered into a prompt and how large the
// prompt may grow. Empty affixes are left out of the output entirely.
type Config struct {
	DescriptionPrefix  string
	DescriptionPostfix string
	InputPrefix        string
	InputPostfix       string
	OutputPrefix       string
	OutputPostfix      string
	NewlineOperator    string

	// MaxTokens is the token budget for context plus pending input.
	MaxTokens int

	// MultiTurn includes the dialog history in the context when true.
	MultiTurn bool

	// PromptNewlineEnd ends a response cue with the newline operator
	// instead of a space.
	PromptNewlineEnd bool
}

// DefaultConfig returns the configuration of a plain engine: no affixes,
// "\n" as separator, DefaultMaxTokens and multi-turn dialog.
func DefaultConfig() Config {
	return Config{
		NewlineOperator: "\n",
		MaxTokens:       DefaultMaxTokens,
		MultiTurn:       true,
	}
}

// Validate reports whether the configuration can be used by an engine.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidConfig, c.MaxTokens)
	}
	return nil
}

// ConfigOverride is a partial Config. Nil fields leave the base value alone.
type ConfigOverride struct {
	DescriptionPrefix  *string
	DescriptionPostfix *string
	InputPrefix        *string
	InputPostfix       *string
	OutputPrefix       *string
	OutputPostfix      *string
	NewlineOperator    *string
	MaxTokens          *int
	MultiTurn          *bool
	PromptNewlineEnd   *bool
}

// Merge returns a copy of c where every field set in o replaces the
// corresponding field of c.
func (c Config) Merge(o ConfigOverride) Config {
	mergeString(&c.DescriptionPrefix, o.DescriptionPrefix)
	mergeString(&c.DescriptionPostfix, o.DescriptionPostfix)
	mergeString(&c.InputPrefix, o.InputPrefix)
	mergeString(&c.InputPostfix, o.InputPostfix)
	mergeString(&c.OutputPrefix, o.OutputPrefix)
	mergeString(&c.OutputPostfix, o.OutputPostfix)
	mergeString(&c.NewlineOperator, o.NewlineOperator)
	if o.MaxTokens != nil {
		c.MaxTokens = *o.MaxTokens
	}
	if o.MultiTurn != nil {
		c.MultiTurn = *o.MultiTurn
	}
	if o.PromptNewlineEnd != nil {
		c.PromptNewlineEnd = *o.PromptNewlineEnd
	}
	return c
}

// IsEmpty reports whether the override sets no field.
func (o ConfigOverride) IsEmpty() bool {
	return o == ConfigOverride{}
}

func mergeString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
