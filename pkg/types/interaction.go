package types

// Interaction is one input -> response turn, either a few-shot example or a
// real exchange recorded in the dialog history.
type Interaction struct {
	// Input is the text the user (or the example) supplied.
	Input string `yaml:"input" json:"input"`

	// Response is the text the model produced, or is expected to produce.
	Response string `yaml:"response" json:"response"`
}

// NewInteraction creates an interaction from an input and its response.
func NewInteraction(input, response string) Interaction {
	return Interaction{Input: input, Response: response}
}

// CloneInteractions returns a copy of the slice so callers cannot mutate
// stored history through it. An empty slice is returned as nil.
func CloneInteractions(in []Interaction) []Interaction {
	if len(in) == 0 {
		return nil
	}
	out := make([]Interaction, len(in))
	copy(out, in)
	return out
}
