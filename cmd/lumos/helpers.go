package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/config"
	"github.com/Veraticus/lumos/internal/ner"
	"github.com/Veraticus/lumos/internal/pipeline"
	"github.com/Veraticus/lumos/internal/redact"
	"github.com/Veraticus/lumos/internal/sentiment"
	"github.com/Veraticus/lumos/internal/service"
	"github.com/Veraticus/lumos/internal/speech"
	"github.com/spf13/viper"
)

// loadConfig resolves the configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("check the config file and LUMOS_* variables", err)
	}
	return cfg, nil
}

// credentialError marks a missing-credential failure from a collaborator
// constructor as something the user has to fix.
func credentialError(collaborator string, err error) error {
	if errors.Is(err, common.ErrMissingConfig) {
		return common.NewUserError(fmt.Sprintf("%s credentials are not configured", collaborator), err)
	}
	return err
}

// newAnonymizer builds the anonymizer for the configured tokenizer.
func newAnonymizer(ctx context.Context, cfg *config.Config) (*redact.Anonymizer, error) {
	tokenizer, err := ner.NewTokenizer(ctx, cfg.NER)
	if err != nil {
		return nil, credentialError("tokenizer", fmt.Errorf("failed to create tokenizer: %w", err))
	}
	return redact.NewAnonymizer(tokenizer, redact.Config{
		Provider: cfg.NER.Provider,
		Retry:    cfg.TokenizerRetry,
	}, slog.Default())
}

// buildPipeline wires every collaborator named in cfg. The transcriber is
// only created when audio is requested, so text commands do not need speech
// credentials.
func buildPipeline(ctx context.Context, cfg *config.Config, audio bool, tweak func(*pipeline.Config)) (*pipeline.Pipeline, error) {
	anonymizer, err := newAnonymizer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analyzer, err := sentiment.NewAnalyzer(ctx, cfg.Sentiment, slog.Default())
	if err != nil {
		return nil, credentialError("sentiment", err)
	}

	var transcriber service.Transcriber
	if audio {
		transcriber, err = speech.NewTranscriber(cfg.Speech)
		if err != nil {
			return nil, credentialError("speech", fmt.Errorf("failed to create transcriber: %w", err))
		}
	}

	pipelineCfg := cfg.Pipeline
	if tweak != nil {
		tweak(&pipelineCfg)
	}

	return pipeline.NewWithConfig(anonymizer, cfg.Segmentation, analyzer, transcriber, pipelineCfg, slog.Default())
}
