package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mj1618/desktop-pilot/internal/config"
	"github.com/sashabaranov/go-openai"
)

// OpenAIModel calls any OpenAI-compatible chat completion endpoint
// (OpenAI, OpenRouter, local gateways) with vision input.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAI creates an OpenAI-compatible model. httpClient may be nil.
func NewOpenAI(cfg config.LLMConfig, httpClient *http.Client) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends a single user message. The image travels as a base64
// data URL content part.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(image) > 0 {
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		}
	} else {
		msg.Content = prompt
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: m.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
