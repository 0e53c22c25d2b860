// Package engine assembles few-shot prompts for language models within a
// fixed token budget.
//
// An Engine holds a task description, mandatory few-shot examples, an
// optional flow reset marker and the dialog history of the current session.
// BuildPrompt renders all of it, keeping the longest run of recent dialog
// turns that still fits MaxTokens:
//
//	eng, _ := engine.NewChatEngine(
//	    engine.WithDescription("A bot that answers questions about shapes"),
//	    engine.WithExamples(types.NewInteraction("What is a cube?", "A solid with six square faces")),
//	)
//	prompt, err := eng.BuildPrompt("What is a sphere?")
//	if err != nil {
//	    return err
//	}
//	reply := callModel(prompt)
//	eng.AddInteraction("What is a sphere?", reply)
//
// An Engine is not safe for concurrent use; each session owns its own.
package engine

import (
	"fmt"

	"github.com/entrhq/prompt-engine/pkg/logging"
	"github.com/entrhq/prompt-engine/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("engine")
	if err != nil {
		debugLog.Warnf("Failed to initialize engine logger, using stderr fallback: %v", err)
	}
}

// Engine builds prompts from a description, examples, a flow reset marker
// and the dialog history.
type Engine struct {
	kind          Kind
	description   string
	examples      []types.Interaction
	flowResetText string
	dialog        []types.Interaction
	config        Config
	counter       TokenCounter
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithDescription sets the task description placed at the top of every prompt.
func WithDescription(description string) Option {
	return func(e *Engine) {
		e.description = description
	}
}

// WithExamples appends few-shot examples.
func WithExamples(examples ...types.Interaction) Option {
	return func(e *Engine) {
		e.examples = append(e.examples, examples...)
	}
}

// WithFlowResetText sets the marker placed between examples and dialog.
func WithFlowResetText(text string) Option {
	return func(e *Engine) {
		e.flowResetText = text
	}
}

// WithDialog seeds the dialog history.
func WithDialog(dialog ...types.Interaction) Option {
	return func(e *Engine) {
		e.dialog = append(e.dialog, dialog...)
	}
}

// WithConfig replaces the preset configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithConfigOverride merges o into the preset configuration.
func WithConfigOverride(o ConfigOverride) Option {
	return func(e *Engine) {
		e.config = e.config.Merge(o)
	}
}

// WithMaxTokens sets the token budget.
func WithMaxTokens(maxTokens int) Option {
	return func(e *Engine) {
		e.config.MaxTokens = maxTokens
	}
}

// WithTokenCounter injects the tokenizer used for budget checks.
func WithTokenCounter(counter TokenCounter) Option {
	return func(e *Engine) {
		e.counter = counter
	}
}

// New creates a plain engine starting from DefaultConfig.
func New(opts ...Option) (*Engine, error) {
	return newEngine(KindPrompt, DefaultConfig(), opts)
}

// NewChatEngine creates a chat engine starting from DefaultChatConfig.
func NewChatEngine(opts ...Option) (*Engine, error) {
	return newEngine(KindChat, DefaultChatConfig(), opts)
}

// NewCodeEngine creates a code engine using the comment syntax of lang.
func NewCodeEngine(lang Language, opts ...Option) (*Engine, error) {
	cfg, err := CodePreset(lang)
	if err != nil {
		return nil, err
	}
	return newEngine(KindCode, cfg, opts)
}

// NewOfKind creates an engine of the given kind with its default preset.
func NewOfKind(kind Kind, opts ...Option) (*Engine, error) {
	switch kind {
	case KindPrompt, "":
		return New(opts...)
	case KindChat:
		return NewChatEngine(opts...)
	case KindCode:
		return NewCodeEngine(LanguageJavaScript, opts...)
	default:
		return nil, fmt.Errorf("unknown engine kind %q", kind)
	}
}

func newEngine(kind Kind, cfg Config, opts []Option) (*Engine, error) {
	e := &Engine{
		kind:    kind,
		config:  cfg,
		counter: CharCounter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	if e.counter == nil {
		e.counter = CharCounter{}
	}
	return e, nil
}

// Kind returns the engine variant.
func (e *Engine) Kind() Kind {
	return e.kind
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	return e.config
}

// SetConfig replaces the configuration after validating it.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg
	return nil
}

// UpdateConfig merges o into the current configuration.
func (e *Engine) UpdateConfig(o ConfigOverride) error {
	return e.SetConfig(e.config.Merge(o))
}

// Formatter returns a formatter for the current configuration.
func (e *Engine) Formatter() Formatter {
	return NewFormatter(e.config)
}

// TokenCounter returns the tokenizer used for budget checks.
func (e *Engine) TokenCounter() TokenCounter {
	return e.counter
}

// Description returns the task description.
func (e *Engine) Description() string {
	return e.description
}

// SetDescription replaces the task description.
func (e *Engine) SetDescription(description string) {
	e.description = description
}

// FlowResetText returns the flow reset marker.
func (e *Engine) FlowResetText() string {
	return e.flowResetText
}

// SetFlowResetText replaces the flow reset marker; "" removes it.
func (e *Engine) SetFlowResetText(text string) {
	e.flowResetText = text
}

// Examples returns a copy of the few-shot examples.
func (e *Engine) Examples() []types.Interaction {
	return types.CloneInteractions(e.examples)
}

// Dialog returns a copy of the dialog history, oldest first.
func (e *Engine) Dialog() []types.Interaction {
	return types.CloneInteractions(e.dialog)
}

// AddExample appends a few-shot example. Examples are never truncated.
func (e *Engine) AddExample(input, response string) {
	e.examples = append(e.examples, types.NewInteraction(input, response))
}

// AddExamples appends examples in order.
func (e *Engine) AddExamples(examples ...types.Interaction) {
	e.examples = append(e.examples, examples...)
}

// AddInteraction appends a turn to the dialog history.
func (e *Engine) AddInteraction(input, response string) {
	e.dialog = append(e.dialog, types.NewInteraction(input, response))
}

// AddInteractions appends turns in order.
func (e *Engine) AddInteractions(interactions ...types.Interaction) {
	for _, i := range interactions {
		e.AddInteraction(i.Input, i.Response)
	}
}

// RemoveFirstInteraction drops the oldest dialog turn. It reports false and
// changes nothing when the dialog is empty.
func (e *Engine) RemoveFirstInteraction() (types.Interaction, bool) {
	if len(e.dialog) == 0 {
		return types.Interaction{}, false
	}
	first := e.dialog[0]
	e.dialog = e.dialog[1:]
	return first, true
}

// RemoveLastInteraction drops the newest dialog turn. It reports false and
// changes nothing when the dialog is empty.
func (e *Engine) RemoveLastInteraction() (types.Interaction, bool) {
	if len(e.dialog) == 0 {
		return types.Interaction{}, false
	}
	last := e.dialog[len(e.dialog)-1]
	e.dialog = e.dialog[:len(e.dialog)-1]
	return last, true
}

// State is the complete, serializable state of an engine.
type State struct {
	Kind          Kind
	Description   string
	Examples      []types.Interaction
	FlowResetText string
	Dialog        []types.Interaction
	Config        Config
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	return State{
		Kind:          e.kind,
		Description:   e.description,
		Examples:      e.Examples(),
		FlowResetText: e.flowResetText,
		Dialog:        e.Dialog(),
		Config:        e.config,
	}
}

// Restore replaces description, examples, flow reset text, dialog and
// config with s. Nothing changes if s.Config is invalid. The kind of the
// engine is kept.
func (e *Engine) Restore(s State) error {
	if err := s.Config.Validate(); err != nil {
		return err
	}
	e.description = s.Description
	e.examples = types.CloneInteractions(s.Examples)
	e.flowResetText = s.FlowResetText
	e.dialog = types.CloneInteractions(s.Dialog)
	e.config = s.Config
	return nil
}
