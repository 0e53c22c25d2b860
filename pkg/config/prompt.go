package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/prompt-engine/pkg/engine"
)

const (
	// SectionIDPrompt is the identifier for the prompt settings section
	SectionIDPrompt = "prompt"
)

// Preset names accepted by the prompt section.
const (
	PresetPlain = "plain"
	PresetChat  = "chat"
	PresetCode  = "code"
)

// PromptSection holds the defaults used to build the CLI's engine.
type PromptSection struct {
	Preset           string
	Language         string
	MaxTokens        int   // 0 keeps the preset's budget
	MultiTurn        *bool // nil keeps the preset's value
	PromptNewlineEnd *bool // nil keeps the preset's value
	ResponseCue      bool
	mu               sync.RWMutex
}

// NewPromptSection creates a prompt section that selects the chat preset.
func NewPromptSection() *PromptSection {
	return &PromptSection{Preset: PresetChat}
}

// ID returns the section identifier.
func (s *PromptSection) ID() string {
	return SectionIDPrompt
}

// Title returns the section title.
func (s *PromptSection) Title() string {
	return "Prompt Settings"
}

// Description returns the section description.
func (s *PromptSection) Description() string {
	return "Default engine preset (plain, chat or code), code language and token budget used when no snapshot is loaded."
}

// Data returns the current configuration data.
func (s *PromptSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := map[string]any{
		"preset":       s.Preset,
		"language":     s.Language,
		"max_tokens":   s.MaxTokens,
		"response_cue": s.ResponseCue,
	}
	if s.MultiTurn != nil {
		data["multi_turn"] = *s.MultiTurn
	}
	if s.PromptNewlineEnd != nil {
		data["prompt_newline_end"] = *s.PromptNewlineEnd
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *PromptSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if preset, ok := data["preset"].(string); ok {
		s.Preset = preset
	}
	if language, ok := data["language"].(string); ok {
		s.Language = language
	}
	if v, ok := data["max_tokens"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("max_tokens: %w", err)
		}
		s.MaxTokens = n
	}
	if multiTurn, ok := data["multi_turn"].(bool); ok {
		s.MultiTurn = &multiTurn
	}
	if newlineEnd, ok := data["prompt_newline_end"].(bool); ok {
		s.PromptNewlineEnd = &newlineEnd
	}
	if cue, ok := data["response_cue"].(bool); ok {
		s.ResponseCue = cue
	}
	return nil
}

// Validate validates the current configuration.
func (s *PromptSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Preset {
	case "", PresetPlain, PresetChat:
	case PresetCode:
		if s.Language != "" {
			if _, err := engine.CodePreset(engine.Language(s.Language)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown preset %q (known: %s, %s, %s)", s.Preset, PresetPlain, PresetChat, PresetCode)
	}

	if s.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", s.MaxTokens)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *PromptSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Preset = PresetChat
	s.Language = ""
	s.MaxTokens = 0
	s.MultiTurn = nil
	s.PromptNewlineEnd = nil
	s.ResponseCue = false
}

// Kind returns the engine kind the preset selects.
func (s *PromptSection) Kind() engine.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Preset {
	case PresetPlain:
		return engine.KindPrompt
	case PresetCode:
		return engine.KindCode
	default:
		return engine.KindChat
	}
}

// GetLanguage returns the configured code language, javascript when unset.
func (s *PromptSection) GetLanguage() engine.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Language == "" {
		return engine.LanguageJavaScript
	}
	return engine.Language(s.Language)
}

// GetResponseCue reports whether prompts end with the output prefix.
func (s *PromptSection) GetResponseCue() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ResponseCue
}

// Override returns the engine settings this section changes relative to
// the preset.
func (s *PromptSection) Override() engine.ConfigOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var o engine.ConfigOverride
	if s.MaxTokens > 0 {
		maxTokens := s.MaxTokens
		o.MaxTokens = &maxTokens
	}
	if s.MultiTurn != nil {
		multiTurn := *s.MultiTurn
		o.MultiTurn = &multiTurn
	}
	if s.PromptNewlineEnd != nil {
		newlineEnd := *s.PromptNewlineEnd
		o.PromptNewlineEnd = &newlineEnd
	}
	return o
}
