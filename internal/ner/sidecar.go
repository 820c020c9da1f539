package ner

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

// SidecarTokenizer calls a spaCy sidecar's /tokenize endpoint. The sidecar
// answers {"tokens":[{"text":"Alice","ent_type":"PERSON"}, ...]} with an empty
// ent_type for tokens outside any entity.
//
// Unlike a best-effort classifier, an unreachable sidecar is an error: the
// anonymizer must not pass text through unredacted.
type SidecarTokenizer struct {
	http *http.Client
	url  string
}

// NewSidecarTokenizer creates a SidecarTokenizer for baseURL
// (e.g. "http://ner-sidecar:8001").
func NewSidecarTokenizer(baseURL string, timeout time.Duration) (*SidecarTokenizer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: ner sidecar url is required", common.ErrMissingConfig)
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SidecarTokenizer{
		url:  strings.TrimRight(baseURL, "/") + "/tokenize",
		http: &http.Client{Timeout: timeout},
	}, nil
}

type tokenizeRequest struct {
	Text string `json:"text"`
}

// Tokenize implements service.Tokenizer. It is safe for concurrent use.
func (s *SidecarTokenizer) Tokenize(ctx context.Context, text string) ([]model.Token, error) {
	body, err := json.Marshal(tokenizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner sidecar: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner sidecar: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, common.Unavailable("ner sidecar", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.Unavailable("ner sidecar", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.StatusError("ner sidecar", resp.StatusCode, resp.Header, respBody)
	}

	return parseSidecarTokens(respBody)
}

func parseSidecarTokens(body []byte) ([]model.Token, error) {
	if !gjson.ValidBytes(body) {
		return nil, common.Malformed("ner sidecar", fmt.Errorf("response is not valid JSON"))
	}

	list := gjson.GetBytes(body, "tokens")
	if !list.IsArray() {
		return nil, common.Malformed("ner sidecar", fmt.Errorf("missing tokens array"))
	}

	var tokens []model.Token
	var parseErr error
	list.ForEach(func(_, tok gjson.Result) bool {
		textField := tok.Get("text")
		if !textField.Exists() {
			parseErr = fmt.Errorf("token %d has no text", len(tokens))
			return false
		}
		tokens = append(tokens, model.Token{
			Text:   textField.String(),
			Entity: model.ParseEntityTag(stripIOB(tok.Get("ent_type").String())),
		})
		return true
	})
	if parseErr != nil {
		return nil, common.Malformed("ner sidecar", parseErr)
	}
	return tokens, nil
}
