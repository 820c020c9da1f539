package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/ner"
	"github.com/Veraticus/lumos/internal/pipeline"
	"github.com/Veraticus/lumos/internal/segment"
	"github.com/Veraticus/lumos/internal/sentiment"
	"github.com/Veraticus/lumos/internal/service"
	"github.com/Veraticus/lumos/internal/speech"
	"github.com/spf13/viper"
)

// Config is the fully resolved application configuration.
type Config struct {
	Sentiment    sentiment.Config
	NER          ner.Config
	Speech       speech.Config
	Server       ServerConfig
	Google       googleauth.Config
	UploadFolder string
	Segmentation segment.Policy
	Pipeline     pipeline.Config
	// TokenizerRetry applies to NER collaborator calls.
	TokenizerRetry service.RetryOptions
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string
	Mode string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		NER: ner.Config{
			Provider: ner.ProviderProse,
			Timeout:  10 * time.Second,
		},
		Sentiment: sentiment.Config{
			Provider:   "azure",
			Language:   "en",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelay: time.Second,
			CacheTTL:   15 * time.Minute,
			RateLimit:  60,
		},
		Speech: speech.Config{
			Provider: "azure",
			Language: "en-US",
			Timeout:  90 * time.Second,
		},
		Segmentation: segment.DefaultPolicy(),
		Pipeline:     pipeline.DefaultConfig(),
		TokenizerRetry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		UploadFolder: "uploads",
	}
}

// Load resolves the configuration with this precedence:
// 1. Viper configuration (from config file or LUMOS_ env vars)
// 2. Direct environment variables (SENTIMENT_KEY, SPEECH_REGION, ...)
// 3. Default values
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	cfg := DefaultConfig()

	loadGoogle(v, &cfg.Google)
	loadNER(v, &cfg)
	loadSentiment(v, &cfg)
	loadSpeech(v, &cfg)

	setInt(v, "segmentation.min_length", &cfg.Segmentation.MinLength)
	setInt(v, "segmentation.min_sentences", &cfg.Segmentation.MinSentences)
	setInt(v, "segmentation.parts", &cfg.Segmentation.Parts)

	setInt(v, "pipeline.workers", &cfg.Pipeline.Workers)
	setInt(v, "pipeline.segment_workers", &cfg.Pipeline.SegmentWorkers)
	setDuration(v, "pipeline.document_timeout", &cfg.Pipeline.DocumentTimeout)
	cfg.Pipeline.Retry = cfg.TokenizerRetry

	setString(v, "server.addr", &cfg.Server.Addr)
	setString(v, "server.mode", &cfg.Server.Mode)

	setString(v, "dashboard.upload_folder", &cfg.UploadFolder)
	cfg.UploadFolder = ExpandPath(cfg.UploadFolder)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadGoogle(v *viper.Viper, g *googleauth.Config) {
	setString(v, "google.api_key", &g.APIKey)
	setString(v, "google.service_account_path", &g.ServiceAccountPath)
	setString(v, "google.client_id", &g.ClientID)
	setString(v, "google.client_secret", &g.ClientSecret)
	setString(v, "google.refresh_token", &g.RefreshToken)
	setString(v, "google.endpoint", &g.Endpoint)

	if g.APIKey == "" {
		g.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if g.ServiceAccountPath == "" {
		g.ServiceAccountPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	g.ServiceAccountPath = ExpandPath(g.ServiceAccountPath)
}

func loadNER(v *viper.Viper, cfg *Config) {
	setString(v, "ner.provider", &cfg.NER.Provider)
	setString(v, "ner.sidecar_url", &cfg.NER.SidecarURL)
	setDuration(v, "ner.timeout", &cfg.NER.Timeout)
	setInt(v, "ner.max_retries", &cfg.TokenizerRetry.MaxAttempts)

	if cfg.NER.SidecarURL == "" {
		cfg.NER.SidecarURL = os.Getenv("NER_SIDECAR_URL")
	}
	cfg.NER.Provider = strings.ToLower(cfg.NER.Provider)
	cfg.NER.Google = cfg.Google
}

func loadSentiment(v *viper.Viper, cfg *Config) {
	s := &cfg.Sentiment
	setString(v, "sentiment.provider", &s.Provider)
	setString(v, "sentiment.endpoint", &s.Endpoint)
	setString(v, "sentiment.api_key", &s.APIKey)
	setString(v, "sentiment.model", &s.Model)
	setString(v, "sentiment.language", &s.Language)
	setDuration(v, "sentiment.timeout", &s.Timeout)
	setDuration(v, "sentiment.retry_delay", &s.RetryDelay)
	setDuration(v, "sentiment.cache_ttl", &s.CacheTTL)
	setInt(v, "sentiment.max_retries", &s.MaxRetries)
	setInt(v, "sentiment.rate_limit", &s.RateLimit)
	if v.IsSet("sentiment.temperature") {
		s.Temperature = v.GetFloat64("sentiment.temperature")
	}

	s.Provider = strings.ToLower(s.Provider)
	switch s.Provider {
	case "azure":
		if s.Endpoint == "" {
			s.Endpoint = os.Getenv("SENTIMENT_ENDPOINT")
		}
		if s.APIKey == "" {
			s.APIKey = os.Getenv("SENTIMENT_KEY")
		}
	case "openai":
		if s.APIKey == "" {
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic":
		if s.APIKey == "" {
			s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	s.Google = cfg.Google
}

func loadSpeech(v *viper.Viper, cfg *Config) {
	s := &cfg.Speech
	setString(v, "speech.provider", &s.Provider)
	setString(v, "speech.key", &s.Key)
	setString(v, "speech.region", &s.Region)
	setString(v, "speech.endpoint", &s.Endpoint)
	setString(v, "speech.language", &s.Language)
	setString(v, "speech.model", &s.Model)
	setDuration(v, "speech.timeout", &s.Timeout)

	s.Provider = strings.ToLower(s.Provider)
	switch s.Provider {
	case "azure":
		if s.Key == "" {
			s.Key = os.Getenv("SPEECH_KEY")
		}
		if s.Region == "" {
			s.Region = os.Getenv("SPEECH_REGION")
		}
	case "openai":
		if s.Key == "" {
			s.Key = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// Validate checks structural settings. Collaborator credentials are checked
// when the collaborator is constructed, so commands that never call it do
// not need them.
func (c *Config) Validate() error {
	switch c.NER.Provider {
	case ner.ProviderProse, ner.ProviderSidecar, ner.ProviderGoogle, ner.ProviderSimple:
	default:
		return fmt.Errorf("%w: unknown ner provider %q", common.ErrInvalidConfig, c.NER.Provider)
	}
	switch c.Sentiment.Provider {
	case "azure", "openai", "google", "anthropic":
	default:
		return fmt.Errorf("%w: unknown sentiment provider %q", common.ErrInvalidConfig, c.Sentiment.Provider)
	}
	switch c.Speech.Provider {
	case "azure", "openai":
	default:
		return fmt.Errorf("%w: unknown speech provider %q", common.ErrInvalidConfig, c.Speech.Provider)
	}

	if err := c.Segmentation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("%w: pipeline workers must be at least 1", common.ErrInvalidConfig)
	}
	if c.Pipeline.SegmentWorkers < 1 {
		return fmt.Errorf("%w: pipeline segment workers must be at least 1", common.ErrInvalidConfig)
	}
	if c.Pipeline.DocumentTimeout < 0 {
		return fmt.Errorf("%w: document timeout cannot be negative", common.ErrInvalidConfig)
	}
	if c.Sentiment.RateLimit < 0 {
		return fmt.Errorf("%w: sentiment rate limit cannot be negative", common.ErrInvalidConfig)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: unknown server mode %q", common.ErrInvalidConfig, c.Server.Mode)
	}
	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}
