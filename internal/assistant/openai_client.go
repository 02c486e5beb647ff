package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint. In
// production that is a self-hosted server (LM Studio, vLLM); the wire
// format is identical either way.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// OpenAIConfig describes one inference endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("assistant: model required")
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		// go-openai requires a non-empty key even for local servers
		apiKey = "not-needed"
	}
	conf := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(conf),
		model: cfg.Model,
	}, nil
}

// Complete implements LLMClient.
func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("assistant: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("assistant: chat completion returned no choices")
	}
	return LLMResponse{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
