package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const llmSystemPrompt = `You are a sentiment classifier for customer service conversations. ` +
	`Classify the overall sentiment of the user's text. You MUST respond with ONLY a valid JSON object of the form ` +
	`{"label": "positive|neutral|negative|mixed", "scores": {"positive": 0.0, "neutral": 0.0, "negative": 0.0}}. ` +
	`Scores are confidences between 0 and 1 that sum to 1. Use "mixed" when both strong positive and strong negative sentiment are present.`

// openAIClient implements the Client interface for OpenAI-compatible chat APIs.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// newOpenAIClient creates a new OpenAI chat client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		config.BaseURL = cfg.Endpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &openAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Analyze asks the chat model for a JSON sentiment classification.
func (c *openAIClient) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return model.SentimentResult{}, classifyOpenAIError("openai sentiment", err)
	}

	if len(resp.Choices) == 0 {
		return model.SentimentResult{}, common.Malformed("openai sentiment", fmt.Errorf("no completion choices returned"))
	}

	return parseLLMSentiment("openai sentiment", resp.Choices[0].Message.Content)
}

// parseLLMSentiment reads the JSON object a chat model was asked to produce.
func parseLLMSentiment(collaborator, content string) (model.SentimentResult, error) {
	content = stripCodeFence(content)
	if !gjson.Valid(content) {
		return model.SentimentResult{}, common.Malformed(collaborator, fmt.Errorf("response is not valid JSON: %q", content))
	}

	parsed := gjson.Parse(content)
	label, err := model.ParseSentimentLabel(parsed.Get("label").String())
	if err != nil {
		return model.SentimentResult{}, common.Malformed(collaborator, err)
	}

	scores := parsed.Get("scores")
	if !scores.IsObject() {
		return model.SentimentResult{}, common.Malformed(collaborator, fmt.Errorf("missing scores object"))
	}

	return model.SentimentResult{
		Label: label,
		Scores: model.SentimentScores{
			Positive: scores.Get("positive").Float(),
			Neutral:  scores.Get("neutral").Float(),
			Negative: scores.Get("negative").Float(),
		},
	}, nil
}

// stripCodeFence removes a markdown code fence some models wrap JSON in.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// classifyOpenAIError maps go-openai failures onto the collaborator error taxonomy.
func classifyOpenAIError(collaborator string, err error) error {
	if common.IsCancellation(err) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return common.StatusError(collaborator, apiErr.HTTPStatusCode, nil, []byte(apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return common.StatusError(collaborator, reqErr.HTTPStatusCode, nil, []byte(reqErr.Error()))
	}

	return common.Unavailable(collaborator, err)
}
