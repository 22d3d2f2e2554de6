package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// The hosted completion provider implements this; tests substitute fakes.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
