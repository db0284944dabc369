package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Ensure ChatLLM implements LLMService
var _ driven.LLMService = (*ChatLLM)(nil)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// ChatLLM implements LLMService over an OpenAI-compatible chat endpoint
type ChatLLM struct {
	client      llms.Model
	model       string
	temperature float64
}

// NewChatLLM creates a chat completion service.
// An empty baseURL targets the hosted OpenAI API.
func NewChatLLM(apiKey, model, baseURL string, temperature float64) (driven.LLMService, error) {
	if model == "" {
		model = domain.DefaultLLMModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if apiKey == "" {
		apiKey = noToken
	}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	return &ChatLLM{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Complete sends one system and one user message and returns the first choice
func (l *ChatLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := l.client.GenerateContent(ctx, content, llms.WithTemperature(l.temperature))
	if err != nil {
		return "", &domain.GenerationError{Model: l.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Model: l.model, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Content, nil
}

func (l *ChatLLM) Model() string {
	return l.model
}

// Ping asks for a one-word completion
func (l *ChatLLM) Ping(ctx context.Context) error {
	answer, err := l.Complete(ctx, "Reply with OK.", "ping")
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) == "" {
		return &domain.GenerationError{Model: l.model, Err: errors.New("empty reply")}
	}
	return nil
}

func (l *ChatLLM) Close() error {
	return nil
}
