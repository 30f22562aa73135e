package llm

import (
	"context"
	"fmt"

	"github.com/mj1618/desktop-pilot/internal/config"
	"google.golang.org/genai"
)

// GeminiModel calls the Gemini API through the official genai SDK.
type GeminiModel struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a Gemini-backed model.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	temperature := cfg.Temperature
	return &GeminiModel{
		client: client,
		model:  cfg.Model,
		config: &genai.GenerateContentConfig{Temperature: &temperature},
	}, nil
}

// Generate sends the prompt and, when present, the image as inline PNG data.
func (m *GeminiModel) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(image, "image/png"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, m.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoChoices
	}
	return resp.Text(), nil
}
