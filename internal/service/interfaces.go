// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/lumos/internal/model"
)

// Tokenizer is the tokenization / named-entity collaborator. It returns the
// tokens of text in left-to-right order, each tagged with an entity label.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]model.Token, error)
}

// SentimentAnalyzer is the sentiment classification collaborator.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (model.SentimentResult, error)
}

// Transcriber is the speech-to-text collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
