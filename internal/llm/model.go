// Package llm wraps the vision/language models behind a single narrow
// interface: a prompt plus an optional PNG in, text out.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Model generates text from a prompt and an optional PNG image (nil for none).
type Model interface {
	Generate(ctx context.Context, prompt string, image []byte) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string, image []byte) (string, error)

func (f ModelFunc) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	return f(ctx, prompt, image)
}

var (
	// ErrNoAPIKey is returned when no API key is configured for the provider.
	ErrNoAPIKey = errors.New("no API key configured (set GEMINI_API_KEY or OPENAI_API_KEY, or llm.api_key)")
	// ErrNoChoices is returned when the provider answers without any candidate.
	ErrNoChoices = errors.New("model returned no choices")
)

// SafeGenerate calls m and converts a panic inside the model client into
// an error, so callers can treat every fault the same way.
func SafeGenerate(ctx context.Context, m Model, prompt string, image []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return m.Generate(ctx, prompt, image)
}
