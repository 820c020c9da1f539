package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/segment"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the direct environment variables Load consults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SENTIMENT_ENDPOINT", "SENTIMENT_KEY", "SPEECH_KEY", "SPEECH_REGION",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GOOGLE_APPLICATION_CREDENTIALS", "NER_SIDECAR_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "prose", cfg.NER.Provider)
	assert.Equal(t, "azure", cfg.Sentiment.Provider)
	assert.Equal(t, "en", cfg.Sentiment.Language)
	assert.Equal(t, segment.DefaultPolicy(), cfg.Segmentation)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 4, cfg.Pipeline.SegmentWorkers)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "uploads", cfg.UploadFolder)
}

func TestLoadPrecedence(t *testing.T) {
	t.Run("viper beats environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SENTIMENT_KEY", "env-key")
		t.Setenv("SENTIMENT_ENDPOINT", "https://env.example.com")

		v := viper.New()
		v.Set("sentiment.api_key", "viper-key")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "viper-key", cfg.Sentiment.APIKey)
		assert.Equal(t, "https://env.example.com", cfg.Sentiment.Endpoint)
	})

	t.Run("provider specific environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("SPEECH_KEY", "speech-key")
		t.Setenv("SPEECH_REGION", "westeurope")
		t.Setenv("NER_SIDECAR_URL", "http://ner:8001")

		v := viper.New()
		v.Set("sentiment.provider", "OpenAI")
		v.Set("ner.provider", "sidecar")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Sentiment.Provider)
		assert.Equal(t, "sk-test", cfg.Sentiment.APIKey)
		assert.Equal(t, "speech-key", cfg.Speech.Key)
		assert.Equal(t, "westeurope", cfg.Speech.Region)
		assert.Equal(t, "http://ner:8001", cfg.NER.SidecarURL)
	})

	t.Run("anthropic key from environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ANTHROPIC_API_KEY", "ak-test")

		v := viper.New()
		v.Set("sentiment.provider", "anthropic")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "ak-test", cfg.Sentiment.APIKey)
	})

	t.Run("google credentials are shared", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_API_KEY", "g-key")

		v := viper.New()
		v.Set("sentiment.provider", "google")
		v.Set("ner.provider", "google")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "g-key", cfg.NER.Google.APIKey)
		assert.Equal(t, "g-key", cfg.Sentiment.Google.APIKey)
	})
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)

	v := viper.New()
	v.Set("segmentation.min_length", 100)
	v.Set("segmentation.min_sentences", 3)
	v.Set("segmentation.parts", 2)
	v.Set("pipeline.workers", 8)
	v.Set("pipeline.document_timeout", "45s")
	v.Set("sentiment.cache_ttl", "1h")
	v.Set("sentiment.rate_limit", 0)
	v.Set("ner.max_retries", 5)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, segment.Policy{MinLength: 100, MinSentences: 3, Parts: 2}, cfg.Segmentation)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.DocumentTimeout)
	assert.Equal(t, time.Hour, cfg.Sentiment.CacheTTL)
	assert.Equal(t, 0, cfg.Sentiment.RateLimit)
	assert.Equal(t, 5, cfg.TokenizerRetry.MaxAttempts)
	assert.Equal(t, 5, cfg.Pipeline.Retry.MaxAttempts)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "unknown ner provider", key: "ner.provider", value: "nltk"},
		{name: "unknown sentiment provider", key: "sentiment.provider", value: "watson"},
		{name: "unknown speech provider", key: "speech.provider", value: "vosk"},
		{name: "zero parts", key: "segmentation.parts", value: 0},
		{name: "zero workers", key: "pipeline.workers", value: 0},
		{name: "negative timeout", key: "pipeline.document_timeout", value: "-1s"},
		{name: "bad server mode", key: "server.mode", value: "production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("LUMOS_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "uploads"), ExpandPath("~/uploads"))
	assert.Equal(t, "/data/audio", ExpandPath("$LUMOS_TEST_DIR/audio"))
	assert.Equal(t, "relative/path", ExpandPath("relative/path"))
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = ResolveDir(file)
	assert.Error(t, err)

	_, err = ResolveDir(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
