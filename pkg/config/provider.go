package config

import (
	"fmt"
	"os"

	"github.com/entrhq/prompt-engine/pkg/llm/openai"
)

// ProviderFlags are the provider settings given on the command line.
// Empty fields are unset.
type ProviderFlags struct {
	Model   string
	BaseURL string
	APIKey  string
}

// ResolvedProvider is the outcome of merging flags, environment and the
// config file.
type ResolvedProvider struct {
	Model   string
	BaseURL string
	APIKey  string
}

// ResolveProvider applies the precedence CLI flags > environment variables >
// config file > defaults. The model has no environment variable.
func ResolveProvider(flags ProviderFlags, defaultModel string) (ResolvedProvider, error) {
	r := ResolvedProvider{
		Model:   flags.Model,
		BaseURL: flags.BaseURL,
		APIKey:  flags.APIKey,
	}

	if r.APIKey == "" {
		r.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if r.BaseURL == "" {
		r.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if file := GetLLM(); file != nil {
		if r.Model == "" {
			r.Model = file.GetModel()
		}
		if r.BaseURL == "" {
			r.BaseURL = file.GetBaseURL()
		}
		if r.APIKey == "" {
			r.APIKey = file.GetAPIKey()
		}
	}

	if r.Model == "" {
		r.Model = defaultModel
	}

	if r.APIKey == "" {
		return ResolvedProvider{}, fmt.Errorf("API key is required. Set OPENAI_API_KEY environment variable, use -api-key flag, or configure api_key in the llm section of %s", configPathHint())
	}
	return r, nil
}

// BuildProvider resolves the provider settings and creates an OpenAI provider.
func BuildProvider(flags ProviderFlags, defaultModel string) (*openai.Provider, error) {
	r, err := ResolveProvider(flags, defaultModel)
	if err != nil {
		return nil, err
	}

	opts := []openai.ProviderOption{openai.WithModel(r.Model)}
	if r.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(r.BaseURL))
	}

	provider, err := openai.NewProvider(r.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}

func configPathHint() string {
	if IsInitialized() {
		if fs, ok := Global().Store().(*FileStore); ok {
			return fs.Path()
		}
	}
	if path, err := DefaultPath(); err == nil {
		return path
	}
	return "the config file"
}
