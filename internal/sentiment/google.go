package sentiment

import (
	"context"
	"fmt"
	"math"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/googleauth"
	"github.com/Veraticus/lumos/internal/model"
	"google.golang.org/api/language/v1"
)

// Thresholds for turning a Natural Language score/magnitude pair into a label.
const (
	googlePolarityThreshold = 0.25
	googleMixedMagnitude    = 2.0
)

// googleClient implements the Client interface for the Cloud Natural Language API.
type googleClient struct {
	service *language.Service
}

// newGoogleClient creates a new Natural Language API client.
func newGoogleClient(ctx context.Context, cfg Config) (Client, error) {
	svc, err := googleauth.NewService(ctx, cfg.Google)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMissingConfig, err)
	}
	return &googleClient{service: svc}, nil
}

// Analyze calls documents:analyzeSentiment for text.
func (c *googleClient) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	req := &language.AnalyzeSentimentRequest{
		Document: &language.Document{
			Content: text,
			Type:    "PLAIN_TEXT",
		},
		EncodingType: "UTF8",
	}

	resp, err := c.service.Documents.AnalyzeSentiment(req).Context(ctx).Do()
	if err != nil {
		return model.SentimentResult{}, googleauth.ClassifyError("google sentiment", err)
	}
	if resp.DocumentSentiment == nil {
		return model.SentimentResult{}, common.Malformed("google sentiment", fmt.Errorf("missing documentSentiment"))
	}

	return fromGoogleSentiment(resp.DocumentSentiment.Score, resp.DocumentSentiment.Magnitude), nil
}

// fromGoogleSentiment converts a score in [-1,1] and an unbounded magnitude
// into a label and three confidences. A near-zero score with a large
// magnitude means strong feelings in both directions, which is "mixed".
func fromGoogleSentiment(score, magnitude float64) model.SentimentResult {
	score = math.Max(-1, math.Min(1, score))

	var label model.SentimentLabel
	switch {
	case score >= googlePolarityThreshold:
		label = model.LabelPositive
	case score <= -googlePolarityThreshold:
		label = model.LabelNegative
	case magnitude >= googleMixedMagnitude:
		label = model.LabelMixed
	default:
		label = model.LabelNeutral
	}

	return model.SentimentResult{
		Label: label,
		Scores: model.SentimentScores{
			Positive: math.Max(score, 0),
			Neutral:  1 - math.Abs(score),
			Negative: math.Max(-score, 0),
		},
	}
}
