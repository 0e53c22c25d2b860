// Package session runs prompt/response round trips between an engine and a
// completion provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrhq/prompt-engine/pkg/engine"
	"github.com/entrhq/prompt-engine/pkg/llm"
	"github.com/entrhq/prompt-engine/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("session")
	if err != nil {
		debugLog.Warnf("Failed to initialize session logger, using stderr fallback: %v", err)
	}
}

// Session sends prompts built by an engine to a provider and records the
// replies as dialog. Like the engine it wraps, it is not safe for concurrent use.
type Session struct {
	engine              *engine.Engine
	provider            llm.Provider
	responseCue         bool
	maxCompletionTokens int
	temperature         *float64
	lastUsage           llm.Usage
	lastPrompt          string
}

// Option configures a Session.
type Option func(*Session)

// WithResponseCue ends every prompt with the engine's output prefix.
func WithResponseCue(enabled bool) Option {
	return func(s *Session) {
		s.responseCue = enabled
	}
}

// WithMaxCompletionTokens caps the length of each reply.
func WithMaxCompletionTokens(n int) Option {
	return func(s *Session) {
		s.maxCompletionTokens = n
	}
}

// WithTemperature sets the sampling temperature for each request.
func WithTemperature(temperature float64) Option {
	return func(s *Session) {
		s.temperature = &temperature
	}
}

// New creates a session. Both the engine and the provider are required.
func New(e *engine.Engine, provider llm.Provider, opts ...Option) (*Session, error) {
	if e == nil {
		return nil, errors.New("session requires an engine")
	}
	if provider == nil {
		return nil, errors.New("session requires a provider")
	}

	s := &Session{engine: e, provider: provider}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Engine returns the engine the session builds prompts with.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// LastUsage returns the token usage the provider reported for the last
// successful Send.
func (s *Session) LastUsage() llm.Usage {
	return s.lastUsage
}

// LastPrompt returns the prompt transmitted by the last successful Send.
func (s *Session) LastPrompt() string {
	return s.lastPrompt
}

// Prompt returns the prompt Send would transmit for input.
func (s *Session) Prompt(input string) (string, error) {
	var opts []engine.BuildOption
	if s.responseCue {
		opts = append(opts, engine.WithResponseCue())
	}
	return s.engine.BuildPrompt(input, opts...)
}

// Send builds the prompt for input, asks the provider to complete it and
// appends the trimmed reply to the dialog. The model is stopped at the input
// label so it does not write the user's next turn. On error the dialog is
// left as it was.
func (s *Session) Send(ctx context.Context, input string) (string, error) {
	prompt, err := s.Prompt(input)
	if err != nil {
		return "", err
	}

	req := &llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   s.maxCompletionTokens,
		Temperature: s.temperature,
	}
	if stop := strings.TrimSpace(s.engine.Config().InputPrefix); stop != "" {
		req.Stop = []string{stop}
	}

	debugLog.Debugf("Sending prompt to %s: %d bytes, %d dialog turns",
		s.provider.GetModel(), len(prompt), len(s.engine.Dialog()))

	completion, err := s.provider.Complete(ctx, req)
	if err != nil {
		debugLog.Errorf("Completion failed: %v", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}

	response := strings.TrimSpace(completion.Text)
	s.engine.AddInteraction(input, response)
	s.lastUsage = completion.Usage
	s.lastPrompt = prompt

	debugLog.Debugf("Received reply: %d chars, finish reason %q, usage %+v",
		len(response), completion.FinishReason, completion.Usage)
	return response, nil
}
