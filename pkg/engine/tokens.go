package engine

import "unicode/utf8"

// TokenCounter counts the tokens a model would see for text. Implementations
// must return the same count for the same text.
type TokenCounter interface {
	CountTokens(text string) int
}

// TokenCounterFunc adapts a function to TokenCounter.
type TokenCounterFunc func(text string) int

// CountTokens calls f(text).
func (f TokenCounterFunc) CountTokens(text string) int {
	return f(text)
}

// CharCounter approximates tokens from the rune count. It is used when no
// tokenizer is injected.
type CharCounter struct {
	// CharsPerToken defaults to 4 (English average) when <= 0.
	CharsPerToken int
}

// CountTokens returns ceil(runes / CharsPerToken).
func (c CharCounter) CountTokens(text string) int {
	cpt := c.CharsPerToken
	if cpt <= 0 {
		cpt = 4
	}
	n := utf8.RuneCountInString(text)
	return (n + cpt - 1) / cpt
}
