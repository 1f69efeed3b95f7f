package core

import "context"

// Generator produces judge output for a system and user prompt.
// Implementations returning structured output encode it as JSON text.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerateFunc adapts a plain function to Generator.
type GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f GenerateFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}

// CountFunc counts the length units (words, tokens) of a text.
type CountFunc func(text string) int
