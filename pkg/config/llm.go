package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// LLMSection manages completion provider settings.
type LLMSection struct {
	Model               string
	BaseURL             string
	APIKey              string
	Temperature         *float64 // nil leaves sampling to the service
	MaxCompletionTokens int      // 0 leaves the reply length to the service
	mu                  sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Configure the OpenAI-compatible completion provider. temperature and max_completion_tokens are optional and left to the service when unset."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := map[string]any{
		"model":                 s.Model,
		"base_url":              s.BaseURL,
		"api_key":               s.APIKey,
		"max_completion_tokens": s.MaxCompletionTokens,
	}
	if s.Temperature != nil {
		data["temperature"] = *s.Temperature
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if model, ok := data["model"].(string); ok {
		s.Model = model
	}

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	if apiKey, ok := data["api_key"].(string); ok {
		s.APIKey = apiKey
	}

	if v, ok := data["temperature"]; ok {
		temperature, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("temperature: %w", err)
		}
		s.Temperature = &temperature
	}

	if v, ok := data["max_completion_tokens"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("max_completion_tokens: %w", err)
		}
		s.MaxCompletionTokens = n
	}

	return nil
}

// Validate validates the current configuration.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *s.Temperature)
	}
	if s.MaxCompletionTokens < 0 {
		return fmt.Errorf("max_completion_tokens must not be negative, got %d", s.MaxCompletionTokens)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = ""
	s.BaseURL = ""
	s.APIKey = ""
	s.Temperature = nil
	s.MaxCompletionTokens = 0
}

// GetModel returns the configured model name.
func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

// SetModel sets the model name.
func (s *LLMSection) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model = model
}

// GetBaseURL returns the configured base URL.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the base URL.
func (s *LLMSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetAPIKey returns the configured API key.
func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// SetAPIKey sets the API key.
func (s *LLMSection) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = apiKey
}

// GetTemperature returns the configured temperature and whether one is set.
func (s *LLMSection) GetTemperature() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Temperature == nil {
		return 0, false
	}
	return *s.Temperature, true
}

// GetMaxCompletionTokens returns the reply length cap, 0 when unset.
func (s *LLMSection) GetMaxCompletionTokens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxCompletionTokens
}

// toInt converts JSON numbers to int. Whole float64 values are accepted since
// encoding/json decodes every number as float64.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("must be a whole number, got %v", n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}
