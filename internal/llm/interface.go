// Package llm defines the text-completion providers used for results analysis.
package llm

import "context"

// Provider sends one prompt and returns one completion.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response holds the completion text.
type Response struct {
	Text         string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens applies when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// MaxTokens returns n, or DefaultMaxTokens when n is not positive.
func MaxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
