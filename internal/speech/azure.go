package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/tidwall/gjson"
)

const azureRecognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"

// AzureTranscriber uses the Azure Speech short-audio REST API, which
// recognizes a single utterance of up to 60 seconds.
type AzureTranscriber struct {
	httpClient *http.Client
	endpoint   string
	key        string
	language   string
}

// NewAzureTranscriber creates an AzureTranscriber. Either Region or Endpoint
// must be set.
func NewAzureTranscriber(cfg Config) (*AzureTranscriber, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: speech key is required", common.ErrMissingConfig)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("%w: speech region is required", common.ErrMissingConfig)
		}
		endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com", cfg.Region)
	}

	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	return &AzureTranscriber{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        cfg.Key,
		language:   language,
	}, nil
}

// azureContentType returns the Content-Type the short-audio API expects for path.
func azureContentType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav; codecs=audio/pcm; samplerate=16000", nil
	case ".ogg":
		return "audio/ogg; codecs=opus", nil
	default:
		return "", fmt.Errorf("azure speech does not accept %s files", filepath.Ext(path))
	}
}

// Transcribe implements service.Transcriber.
func (a *AzureTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	contentType, err := azureContentType(audioPath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	query := url.Values{}
	query.Set("language", a.language)
	query.Set("format", "simple")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+azureRecognitionPath+"?"+query.Encode(), f)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", common.Unavailable("azure speech", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", common.Unavailable("azure speech", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", common.StatusError("azure speech", resp.StatusCode, resp.Header, body)
	}

	return parseAzureRecognition(body)
}

// parseAzureRecognition reads a simple-format recognition result.
func parseAzureRecognition(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", common.Malformed("azure speech", fmt.Errorf("response is not valid JSON"))
	}

	result := gjson.ParseBytes(body)
	switch status := result.Get("RecognitionStatus").String(); status {
	case "Success":
		return result.Get("DisplayText").String(), nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return "", nil
	case "":
		return "", common.Malformed("azure speech", fmt.Errorf("missing RecognitionStatus"))
	default:
		return "", fmt.Errorf("azure speech: recognition failed: %s", status)
	}
}
