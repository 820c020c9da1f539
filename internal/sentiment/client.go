package sentiment

import (
	"context"
	"time"

	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/model"
)

// Client defines the interface for sentiment providers.
type Client interface {
	Analyze(ctx context.Context, text string) (model.SentimentResult, error)
}

// Config holds configuration for the sentiment collaborator.
type Config struct {
	Google      googleauth.Config
	Provider    string
	Endpoint    string
	APIKey      string
	Model       string
	Language    string
	Timeout     time.Duration
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Temperature float64
	MaxRetries  int
	RateLimit   int
}
