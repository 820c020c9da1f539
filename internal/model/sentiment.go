package model

import (
	"fmt"
	"strings"
)

// SentimentLabel is the categorical output of the sentiment collaborator.
type SentimentLabel string

// Sentiment labels.
const (
	LabelPositive SentimentLabel = "positive"
	LabelNeutral  SentimentLabel = "neutral"
	LabelNegative SentimentLabel = "negative"
	LabelMixed    SentimentLabel = "mixed"
)

// ParseSentimentLabel validates a collaborator label.
func ParseSentimentLabel(s string) (SentimentLabel, error) {
	switch label := SentimentLabel(strings.ToLower(strings.TrimSpace(s))); label {
	case LabelPositive, LabelNeutral, LabelNegative, LabelMixed:
		return label, nil
	default:
		return "", fmt.Errorf("unknown sentiment label %q", s)
	}
}

// SentimentScores holds the per-class confidences reported by the collaborator.
type SentimentScores struct {
	Positive float64 `json:"positive" yaml:"positive"`
	Neutral  float64 `json:"neutral" yaml:"neutral"`
	Negative float64 `json:"negative" yaml:"negative"`
}

// Validate checks that every score lies in [0,1].
func (s SentimentScores) Validate() error {
	for name, v := range map[string]float64{"positive": s.Positive, "neutral": s.Neutral, "negative": s.Negative} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s score %v outside [0,1]", name, v)
		}
	}
	return nil
}

// SentimentResult is one classifier response. It is never modified after
// it is returned.
type SentimentResult struct {
	Label  SentimentLabel  `json:"label" yaml:"label"`
	Scores SentimentScores `json:"scores" yaml:"scores"`
}

// EmptySentiment is the result used for zero-length text, which is never
// sent to a collaborator.
func EmptySentiment() SentimentResult {
	return SentimentResult{
		Label:  LabelNeutral,
		Scores: SentimentScores{Neutral: 1},
	}
}

// Verdict is the 3-way display classification for a whole document.
type Verdict string

// Verdicts.
const (
	VerdictPositive Verdict = "POSITIVE"
	VerdictNegative Verdict = "NEGATIVE"
	VerdictNeutral  Verdict = "NEUTRAL"
)

// TrendPoint is one step of a sentiment trend: -1, 0 or +1.
type TrendPoint int

// Trend points.
const (
	TrendNegative TrendPoint = -1
	TrendNeutral  TrendPoint = 0
	TrendPositive TrendPoint = 1
)
