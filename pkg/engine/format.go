package engine

import (
	"strings"

	"github.com/entrhq/prompt-engine/pkg/types"
)

// Formatter renders text with the affixes of a Config. It holds no state
// besides the configuration, so repeated calls always produce the same text.
type Formatter struct {
	cfg Config
}

// NewFormatter creates a formatter for cfg.
func NewFormatter(cfg Config) Formatter {
	return Formatter{cfg: cfg}
}

// Input renders "<inputPrefix> text <inputPostfix><newline>".
func (f Formatter) Input(text string) string {
	return f.affix(f.cfg.InputPrefix, text, f.cfg.InputPostfix) + f.cfg.NewlineOperator
}

// Output renders "<outputPrefix> text <outputPostfix><newline>".
func (f Formatter) Output(text string) string {
	return f.affix(f.cfg.OutputPrefix, text, f.cfg.OutputPostfix) + f.cfg.NewlineOperator
}

// Interaction renders one turn followed by an extra newline.
func (f Formatter) Interaction(i types.Interaction) string {
	return f.Input(i.Input) + f.Output(i.Response) + f.cfg.NewlineOperator
}

// Interactions renders turns in order with no separator of its own.
func (f Formatter) Interactions(list []types.Interaction) string {
	var b strings.Builder
	for _, i := range list {
		b.WriteString(f.Interaction(i))
	}
	return b.String()
}

// Framed renders text with the description affixes followed by two
// newlines. Description and flow reset text share this framing.
func (f Formatter) Framed(text string) string {
	return f.affix(f.cfg.DescriptionPrefix, text, f.cfg.DescriptionPostfix) +
		f.cfg.NewlineOperator + f.cfg.NewlineOperator
}

// ResponseCue renders the output prefix that invites the model to answer,
// or "" when there is no output prefix.
func (f Formatter) ResponseCue() string {
	if f.cfg.OutputPrefix == "" {
		return ""
	}
	if f.cfg.PromptNewlineEnd {
		return f.cfg.OutputPrefix + f.cfg.NewlineOperator
	}
	return f.cfg.OutputPrefix + " "
}

func (f Formatter) affix(prefix, text, postfix string) string {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(" ")
	}
	b.WriteString(text)
	if postfix != "" {
		b.WriteString(" ")
		b.WriteString(postfix)
	}
	return b.String()
}
