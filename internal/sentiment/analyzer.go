package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/metrics"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/service"
)

// Analyzer implements service.SentimentAnalyzer on top of a provider Client,
// adding caching, rate limiting and retries.
type Analyzer struct {
	client      Client
	cache       *resultCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	provider    string
	retryOpts   service.RetryOptions
}

var _ service.SentimentAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates an Analyzer for the provider named in cfg.
func NewAnalyzer(ctx context.Context, cfg Config, logger *slog.Logger) (*Analyzer, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sentiment client: %w", err)
	}
	return NewAnalyzerWithClient(client, cfg, logger), nil
}

// NewAnalyzerWithClient wraps an existing client.
func NewAnalyzerWithClient(client Client, cfg Config, logger *slog.Logger) *Analyzer {
	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "custom"
	}

	return &Analyzer{
		client:      client,
		cache:       newResultCache(cfg.CacheTTL),
		logger:      common.OrDefault(logger),
		provider:    provider,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// Analyze classifies text. Blank text is never sent to the provider; it
// yields model.EmptySentiment().
func (a *Analyzer) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return model.EmptySentiment(), nil
	}

	key := cacheKey(text)
	if result, found := a.cache.get(key); found {
		metrics.CacheHits.WithLabelValues("sentiment").Inc()
		a.logger.Debug("sentiment cache hit", "provider", a.provider)
		return result, nil
	}
	metrics.CacheMisses.WithLabelValues("sentiment").Inc()

	var result model.SentimentResult
	err := common.WithRetry(ctx, func() error {
		if err := a.rateLimiter.wait(ctx); err != nil {
			return err
		}

		start := time.Now()
		var callErr error
		result, callErr = a.client.Analyze(ctx, text)
		metrics.ObserveCall("sentiment", a.provider, start, callErr)
		if callErr != nil {
			return callErr
		}
		if err := result.Scores.Validate(); err != nil {
			return common.Malformed("sentiment", err)
		}
		return nil
	}, a.retryOpts)
	if err != nil {
		return model.SentimentResult{}, err
	}

	a.cache.set(key, result)

	a.logger.Debug("text classified",
		"provider", a.provider,
		"label", result.Label,
		"negative", result.Scores.Negative,
		"cache_size", a.cache.size())

	return result, nil
}
