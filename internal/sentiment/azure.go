package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/tidwall/gjson"
)

const azureSentimentPath = "/text/analytics/v3.1/sentiment"

// azureClient implements the Client interface for Azure Text Analytics.
type azureClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	language   string
}

// newAzureClient creates a new Azure Text Analytics client.
func newAzureClient(cfg Config) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: azure sentiment endpoint is required", common.ErrMissingConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: azure sentiment key is required", common.ErrMissingConfig)
	}

	language := cfg.Language
	if language == "" {
		language = "en"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &azureClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type azureDocument struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Analyze sends one document to the sentiment endpoint.
func (c *azureClient) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	requestBody := map[string]any{
		"documents": []azureDocument{{ID: "1", Language: c.language, Text: text}},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return model.SentimentResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+azureSentimentPath, bytes.NewReader(jsonBody))
	if err != nil {
		return model.SentimentResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if common.IsCancellation(ctx.Err()) {
			return model.SentimentResult{}, ctx.Err()
		}
		return model.SentimentResult{}, common.Unavailable("azure sentiment", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.SentimentResult{}, common.Unavailable("azure sentiment", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return model.SentimentResult{}, common.StatusError("azure sentiment", resp.StatusCode, resp.Header, body)
	}

	return parseAzureSentiment(body)
}

// parseAzureSentiment extracts the label and confidence scores of the first
// document in a Text Analytics response.
func parseAzureSentiment(body []byte) (model.SentimentResult, error) {
	if !gjson.ValidBytes(body) {
		return model.SentimentResult{}, common.Malformed("azure sentiment", fmt.Errorf("response is not valid JSON"))
	}

	parsed := gjson.ParseBytes(body)
	if docErr := parsed.Get("errors.0.error"); docErr.Exists() {
		return model.SentimentResult{}, common.Malformed("azure sentiment",
			fmt.Errorf("document rejected: %s: %s", docErr.Get("code").String(), docErr.Get("message").String()))
	}

	doc := parsed.Get("documents.0")
	if !doc.Exists() {
		return model.SentimentResult{}, common.Malformed("azure sentiment", fmt.Errorf("no documents in response"))
	}

	label, err := model.ParseSentimentLabel(doc.Get("sentiment").String())
	if err != nil {
		return model.SentimentResult{}, common.Malformed("azure sentiment", err)
	}

	scores := doc.Get("confidenceScores")
	if !scores.Exists() {
		return model.SentimentResult{}, common.Malformed("azure sentiment", fmt.Errorf("missing confidenceScores"))
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
