package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/lumos/internal/common"
)

// NewClient creates a raw provider client based on the provided configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "azure":
		return newAzureClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	case "google":
		return newGoogleClient(ctx, cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: sentiment provider %q", common.ErrUnsupportedProvider, cfg.Provider)
	}
}
