// Package tokenizer counts tokens with the BPE encodings OpenAI models use.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when a model has no known encoding.
const DefaultEncoding = "cl100k_base"

// Tokenizer counts tokens for one encoding. It satisfies
// engine.TokenCounter and is safe for concurrent use.
type Tokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// New returns a tokenizer for DefaultEncoding.
func New() (*Tokenizer, error) {
	return NewForEncoding(DefaultEncoding)
}

// NewForEncoding returns a tokenizer for a named encoding such as
// "cl100k_base" or "o200k_base".
func NewForEncoding(encoding string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoding, err)
	}
	return &Tokenizer{encoding: encoding, enc: enc}, nil
}

// NewForModel returns a tokenizer for the encoding of model, falling back to
// DefaultEncoding for models tiktoken does not know.
func NewForModel(model string) (*Tokenizer, error) {
	return NewForEncoding(EncodingForModel(model))
}

// EncodingForModel returns the encoding tiktoken uses for model, matching the
// exact name first and then known name prefixes such as "gpt-4o-".
func EncodingForModel(model string) string {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return name
		}
	}
	return DefaultEncoding
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Encoding returns the name of the encoding in use.
func (t *Tokenizer) Encoding() string {
	return t.encoding
}
