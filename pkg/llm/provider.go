// Package llm defines the completion collaborator a prompt is sent to.
//
// Example usage:
//
//	provider, err := openai.NewProvider(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o-mini"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	completion, err := provider.Complete(ctx, &llm.CompletionRequest{
//	    Prompt: prompt,
//	    Stop:   []string{"USER:"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(completion.Text)
package llm

import "context"

// Provider sends an assembled prompt to a model and returns its reply.
//
// Providers only transport text. Building the prompt, choosing stop
// sequences and recording the reply in the dialog are left to the caller.
type Provider interface {
	// Complete sends req and waits for the full reply.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string
}

// CompletionRequest is a single prompt to complete.
type CompletionRequest struct {
	// Prompt is the full text built by the engine.
	Prompt string

	// Stop ends generation when the model emits any of these strings.
	Stop []string

	// MaxTokens caps the reply length. Zero leaves it to the service.
	MaxTokens int

	// Temperature overrides the sampling temperature when set.
	Temperature *float64
}

// Completion is a model reply.
type Completion struct {
	Text         string
	FinishReason string
	Usage        Usage
}

// Usage is the token accounting reported by the service.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
