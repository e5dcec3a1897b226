package ports

import "context"

// CompletionRequest mirrors the opaque text-generation contract: prompt in,
// completion out.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// TextCompleter is the completion backend. Implementations fail with plain
// errors on network or quota problems; callers own the fallback policy.
type TextCompleter interface {
	GenerateText(ctx context.Context, req CompletionRequest) (string, error)
}
