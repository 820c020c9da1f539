// Package decision turns raw sentiment classifier output into the values the
// dashboard shows: a 3-way verdict for a whole document and a numeric trend
// across its segments.
package decision

import "github.com/Veraticus/lumos/internal/model"

// NegativeOverride is the negative confidence at or above which a document
// is NEGATIVE regardless of its label.
const NegativeOverride = 0.5

// Verdict derives the display verdict from a whole-document result.
// The negative-score check runs before the label checks. Mixed results below
// the override fall through to NEUTRAL.
func Verdict(result model.SentimentResult) model.Verdict {
	switch {
	case result.Scores.Negative >= NegativeOverride:
		return model.VerdictNegative
	case result.Label == model.LabelPositive:
		return model.VerdictPositive
	case result.Label == model.LabelNegative:
		return model.VerdictNegative
	default:
		return model.VerdictNeutral
	}
}

// Point maps one segment label onto the trend scale. Mixed counts as neutral.
func Point(label model.SentimentLabel) model.TrendPoint {
	switch label {
	case model.LabelPositive:
		return model.TrendPositive
	case model.LabelNegative:
		return model.TrendNegative
	default:
		return model.TrendNeutral
	}
}

// Trend maps segment results onto trend points in segment order. It returns
// false when there are fewer than two results, which means there is not
// enough data for a trend rather than an error.
func Trend(results []model.SentimentResult) ([]model.TrendPoint, bool) {
	if len(results) <= 1 {
		return nil, false
	}

	points := make([]model.TrendPoint, len(results))
	for i, r := range results {
		points[i] = Point(r.Label)
	}
	return points, true
}
