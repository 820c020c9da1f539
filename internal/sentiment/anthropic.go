package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/liushuangls/go-anthropic/v2"
)

const anthropicModel = "claude-3-5-haiku-latest"

// anthropicClient implements the Client interface for the Anthropic Messages API.
type anthropicClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = anthropicModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	return &anthropicClient{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       modelName,
		temperature: float32(cfg.Temperature),
		maxTokens:   150,
	}, nil
}

// Analyze asks the model for a JSON sentiment classification.
func (c *anthropicClient) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	temperature := c.temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      llmSystemPrompt,
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(text),
				},
			},
		},
	})
	if err != nil {
		return model.SentimentResult{}, classifyAnthropicError(err)
	}

	for _, content := range resp.Content {
		if content.Text != nil {
			return parseLLMSentiment("anthropic sentiment", *content.Text)
		}
	}
	return model.SentimentResult{}, common.Malformed("anthropic sentiment", fmt.Errorf("no text content in response"))
}

// anthropicErrorStatus maps API error types onto the HTTP status that carries them.
var anthropicErrorStatus = map[anthropic.ErrType]int{
	"invalid_request_error": http.StatusBadRequest,
	"authentication_error":  http.StatusUnauthorized,
	"permission_error":      http.StatusForbidden,
	"not_found_error":       http.StatusNotFound,
	"request_too_large":     http.StatusRequestEntityTooLarge,
	"rate_limit_error":      http.StatusTooManyRequests,
	"api_error":             http.StatusInternalServerError,
	"overloaded_error":      529,
}

// classifyAnthropicError maps go-anthropic failures onto the collaborator error taxonomy.
func classifyAnthropicError(err error) error {
	const collaborator = "anthropic sentiment"
	if common.IsCancellation(err) {
		return err
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		status, ok := anthropicErrorStatus[apiErr.Type]
		if !ok {
			status = http.StatusInternalServerError
		}
		return common.StatusError(collaborator, status, nil, []byte(apiErr.Message))
	}

	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode != 0 {
		return common.StatusError(collaborator, reqErr.StatusCode, nil, []byte(reqErr.Error()))
	}

	return common.Unavailable(collaborator, err)
}
