package redact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/metrics"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/service"
)

// Anonymized is the redacted form of one text.
type Anonymized struct {
	Counts model.RedactionCounts
	Text   string
	Tokens int
}

// Anonymizer drives the tokenizer collaborator and the rule table.
type Anonymizer struct {
	tokenizer service.Tokenizer
	logger    *slog.Logger
	provider  string
	retryOpts service.RetryOptions
}

// Config configures an Anonymizer.
type Config struct {
	// Provider names the tokenizer for metrics labels.
	Provider string
	Retry    service.RetryOptions
}

// NewAnonymizer creates an Anonymizer that tokenizes through tokenizer.
func NewAnonymizer(tokenizer service.Tokenizer, cfg Config, logger *slog.Logger) (*Anonymizer, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "custom"
	}
	return &Anonymizer{
		tokenizer: tokenizer,
		logger:    common.OrDefault(logger),
		provider:  provider,
		retryOpts: cfg.Retry,
	}, nil
}

// AnonymizeText redacts a single text. Empty text is returned unchanged
// without a collaborator call.
func (a *Anonymizer) AnonymizeText(ctx context.Context, text string) (Anonymized, error) {
	if text == "" {
		return Anonymized{Counts: model.RedactionCounts{}}, nil
	}

	var tokens []model.Token
	err := common.WithRetry(ctx, func() error {
		start := time.Now()
		var tokErr error
		tokens, tokErr = a.tokenizer.Tokenize(ctx, text)
		metrics.ObserveCall("tokenizer", a.provider, start, tokErr)
		return tokErr
	}, a.retryOpts)
	if err != nil {
		return Anonymized{}, fmt.Errorf("tokenize: %w", err)
	}

	redacted, counts := Redact(tokens)
	for category, n := range counts {
		metrics.Redactions.WithLabelValues(string(category)).Add(float64(n))
	}

	a.logger.Debug("text anonymized",
		"tokens", len(tokens),
		"redacted", counts.Total())

	return Anonymized{Text: redacted, Counts: counts, Tokens: len(tokens)}, nil
}

// Anonymize redacts every text in order. The result always has len(texts)
// entries. Texts that fail leave an empty string at their index and are
// listed in the returned *common.BatchError; the rest of the batch still runs.
func (a *Anonymizer) Anonymize(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	batchErr := &common.BatchError{Total: len(texts)}

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			batchErr.Add(i, "anonymize", err)
			continue
		}

		res, err := a.AnonymizeText(ctx, text)
		if err != nil {
			a.logger.Warn("anonymization failed", "index", i, "error", err)
			batchErr.Add(i, "anonymize", err)
			continue
		}
		out[i] = res.Text
	}

	return out, batchErr.ErrOrNil()
}
