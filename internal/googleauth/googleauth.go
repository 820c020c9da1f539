// Package googleauth builds authenticated client options for the Google
// Cloud Natural Language API, shared by the NER and sentiment adapters.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/lumos/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/language/v1"
	"google.golang.org/api/option"
)

// Config holds the credentials for the Natural Language API. One of APIKey,
// ServiceAccountPath or the OAuth2 triple must be set.
type Config struct {
	APIKey             string
	ServiceAccountPath string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	// Endpoint overrides the API base URL.
	Endpoint string
}

// Validate checks that at least one authentication method is configured.
func (c Config) Validate() error {
	if c.APIKey != "" || c.ServiceAccountPath != "" {
		return nil
	}
	if c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != "" {
		return nil
	}
	if c.ClientID != "" || c.ClientSecret != "" || c.RefreshToken != "" {
		return fmt.Errorf("incomplete OAuth2 credentials: client id, client secret and refresh token are all required")
	}
	return fmt.Errorf("no Google authentication method configured")
}

// ClientOptions returns the options for language.NewService.
func ClientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))

	case cfg.ServiceAccountPath != "":
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, language.CloudLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		opts = append(opts, option.WithTokenSource(jwtConfig.TokenSource(ctx)))

	default:
		client := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{language.CloudLanguageScope},
		}
		token := &oauth2.Token{
			RefreshToken: cfg.RefreshToken,
			TokenType:    "Bearer",
		}
		opts = append(opts, option.WithTokenSource(client.TokenSource(ctx, token)))
	}

	return opts, nil
}

// NewService creates a Natural Language API service.
func NewService(ctx context.Context, cfg Config) (*language.Service, error) {
	opts, err := ClientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := language.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create language service: %w", err)
	}
	return svc, nil
}

// ClassifyError maps a Natural Language API failure onto the collaborator
// error taxonomy.
func ClassifyError(collaborator string, err error) error {
	if err == nil {
		return nil
	}
	if common.IsCancellation(err) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return common.StatusError(collaborator, apiErr.Code, apiErr.Header, []byte(apiErr.Message))
	}
	return common.Unavailable(collaborator, err)
}
