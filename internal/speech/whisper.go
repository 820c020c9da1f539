package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/sashabaranov/go-openai"
)

// WhisperTranscriber uses the OpenAI audio transcription endpoint.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewWhisperTranscriber creates a WhisperTranscriber.
func NewWhisperTranscriber(cfg Config) (*WhisperTranscriber, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required for transcription", common.ErrMissingConfig)
	}

	config := openai.DefaultConfig(cfg.Key)
	if cfg.Endpoint != "" {
		config.BaseURL = cfg.Endpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}

	// Whisper takes ISO-639-1 codes, so "en-US" becomes "en".
	language, _, _ := strings.Cut(cfg.Language, "-")

	return &WhisperTranscriber{
		client:   openai.NewClientWithConfig(config),
		model:    modelName,
		language: strings.ToLower(language),
	}, nil
}

// Transcribe implements service.Transcriber.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classifyError(err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func classifyError(err error) error {
	if common.IsCancellation(err) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return common.StatusError("openai speech", apiErr.HTTPStatusCode, nil, []byte(apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return common.StatusError("openai speech", reqErr.HTTPStatusCode, nil, []byte(reqErr.Error()))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return common.Unavailable("openai speech", err)
	}

	// File errors surface before any request is made.
	return fmt.Errorf("openai speech: %w", err)
}
