package engine

import "strings"

// Assembly is a built context together with how the dialog window was chosen.
type Assembly struct {
	// Context is the text that precedes the pending input.
	Context string

	// DialogKept is the number of most recent dialog turns included.
	DialogKept int

	// DialogDropped is the number of older dialog turns left out.
	DialogDropped int

	// Tokens is the token count of Context followed by the pending input.
	Tokens int
}

type buildOptions struct {
	multiTurn   *bool
	responseCue bool
}

// BuildOption adjusts a single BuildContext or BuildPrompt call.
type BuildOption func(*buildOptions)

// WithMultiTurn overrides Config.MultiTurn for one call.
func WithMultiTurn(multiTurn bool) BuildOption {
	return func(o *buildOptions) {
		o.multiTurn = &multiTurn
	}
}

// WithResponseCue ends the prompt with the output prefix so the model
// answers in the bot's voice, e.g. "USER: hi\nBOT: ".
func WithResponseCue() BuildOption {
	return func(o *buildOptions) {
		o.responseCue = true
	}
}

func (e *Engine) resolve(opts []BuildOption) buildOptions {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.multiTurn == nil {
		mt := e.config.MultiTurn
		o.multiTurn = &mt
	}
	return o
}

// Assemble builds the context that precedes pending, the text that will be
// appended after it (empty for none). The description, examples and flow
// reset text are always included; if they do not fit MaxTokens together with
// pending, Assemble returns a *ContextOverflowError. Dialog turns are then
// added newest first for as long as the whole text stays within budget, so
// the included turns are always a contiguous run ending at the latest one.
func (e *Engine) Assemble(pending string, opts ...BuildOption) (*Assembly, error) {
	o := e.resolve(opts)
	f := e.Formatter()
	maxTokens := e.config.MaxTokens

	var b strings.Builder
	if e.description != "" {
		b.WriteString(f.Framed(e.description))
	}
	b.WriteString(f.Interactions(e.examples))
	if e.flowResetText != "" {
		b.WriteString(f.Framed(e.flowResetText))
	}
	fixed := b.String()

	tokens := e.counter.CountTokens(fixed + pending)
	if tokens > maxTokens {
		debugLog.Warnf("Fixed context needs %d tokens, max is %d", tokens, maxTokens)
		return nil, &ContextOverflowError{Tokens: tokens, MaxTokens: maxTokens}
	}

	asm := &Assembly{Tokens: tokens}
	if !*o.multiTurn {
		asm.Context = fixed
		asm.DialogDropped = len(e.dialog)
		return asm, nil
	}

	suffix := ""
	for i := len(e.dialog) - 1; i >= 0; i-- {
		candidate := f.Interaction(e.dialog[i]) + suffix
		n := e.counter.CountTokens(fixed + candidate + pending)
		if n > maxTokens {
			break
		}
		suffix = candidate
		asm.Tokens = n
		asm.DialogKept++
	}
	asm.DialogDropped = len(e.dialog) - asm.DialogKept
	if asm.DialogDropped > 0 {
		debugLog.Debugf("Dialog window kept %d of %d turns (%d/%d tokens)",
			asm.DialogKept, len(e.dialog), asm.Tokens, maxTokens)
	}

	asm.Context = fixed + suffix
	return asm, nil
}

// BuildContext returns the context that precedes pending. See Assemble.
func (e *Engine) BuildContext(pending string, opts ...BuildOption) (string, error) {
	asm, err := e.Assemble(pending, opts...)
	if err != nil {
		return "", err
	}
	return asm.Context, nil
}

// BuildPrompt returns the context followed by the formatted input. The
// formatted input counts against the budget when choosing how much dialog
// to keep, so the whole prompt stays within MaxTokens.
func (e *Engine) BuildPrompt(input string, opts ...BuildOption) (string, error) {
	o := e.resolve(opts)
	f := e.Formatter()

	tail := f.Input(input)
	if o.responseCue {
		tail += f.ResponseCue()
	}

	context, err := e.BuildContext(tail, opts...)
	if err != nil {
		return "", err
	}
	return context + tail, nil
}

// ResetContext clears the dialog and returns the context that remains.
func (e *Engine) ResetContext() (string, error) {
	e.dialog = nil
	return e.BuildContext("")
}

// BuildDialog renders the full dialog history without any truncation.
func (e *Engine) BuildDialog() string {
	return e.Formatter().Interactions(e.dialog)
}

// CountTokens counts text with the engine's tokenizer.
func (e *Engine) CountTokens(text string) int {
	return e.counter.CountTokens(text)
}
