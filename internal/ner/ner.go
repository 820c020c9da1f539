// Package ner provides the tokenization and named-entity collaborators used by
// the anonymizer. Every implementation returns tokens in text order, each
// tagged with a model.EntityTag.
package ner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/service"
)

// Provider names.
const (
	ProviderProse   = "prose"
	ProviderSidecar = "sidecar"
	ProviderGoogle  = "google"
	ProviderSimple  = "simple"
)

// Config selects and configures a tokenizer.
type Config struct {
	Google     googleauth.Config
	Provider   string
	SidecarURL string
	Timeout    time.Duration
}

// NewTokenizer creates the tokenizer named by cfg.Provider. An empty provider
// selects the in-process prose tokenizer.
func NewTokenizer(ctx context.Context, cfg Config) (service.Tokenizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderProse, "":
		return NewProseTokenizer(), nil
	case ProviderSidecar:
		return NewSidecarTokenizer(cfg.SidecarURL, cfg.Timeout)
	case ProviderGoogle:
		return NewGoogleTokenizer(ctx, cfg.Google)
	case ProviderSimple:
		return SimpleTokenizer{}, nil
	default:
		return nil, fmt.Errorf("%w: tokenizer provider %q", common.ErrUnsupportedProvider, cfg.Provider)
	}
}

// stripIOB removes a B-/I- prefix from an IOB entity label. "O" becomes "".
func stripIOB(label string) string {
	switch {
	case label == "O":
		return ""
	case strings.HasPrefix(label, "B-"), strings.HasPrefix(label, "I-"):
		return label[2:]
	default:
		return label
	}
}
