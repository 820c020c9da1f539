package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/lumos/internal/model"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// trendBarWidth is the number of cells in one trend bar.
const trendBarWidth = 12

// WriteBatch writes batch to w in the given format.
func WriteBatch(w io.Writer, batch model.BatchReport, format string) error {
	switch format {
	case FormatText, "":
		for _, report := range batch.Reports {
			if _, err := fmt.Fprintln(w, RenderReport(report)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w, RenderSummary(batch))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(batch)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// RenderReport renders one document the way the dashboard lays it out:
// redacted text, overall verdict with score breakdown, then the trend.
func RenderReport(report model.DocumentReport) string {
	var b strings.Builder

	name := report.Source
	if name == "" {
		name = report.ID
	}
	title := fmt.Sprintf("%s Document %d: %s", ChartIcon, report.Index+1, name)

	fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Status:"), renderStatus(report.Status))
	if report.Origin != "" {
		fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render("Origin:"), report.Origin)
	}

	if report.Status != model.StatusFailed || report.Anonymized != "" {
		b.WriteString("\n" + TitleStyle.Render(LockIcon+" Anonymized text") + "\n")
		b.WriteString(report.Anonymized + "\n")
		if summary := RenderRedactions(report.Redactions); summary != "" {
			b.WriteString(SubtleStyle.Render(summary) + "\n")
		}
	}

	if report.Full != nil {
		b.WriteString("\n" + TitleStyle.Render("Overall sentiment") + "\n")
		b.WriteString(RenderVerdict(report.Verdict) + "\n")
		b.WriteString(RenderScores(report.Full.Scores) + "\n")
	}

	if report.TrendAvailable {
		b.WriteString("\n" + TitleStyle.Render("Sentiment trend") + "\n")
		b.WriteString(RenderTrend(report.Trend))
	}

	for _, note := range report.Notes {
		b.WriteString("\n" + FormatInfo(note))
	}
	for _, e := range report.Errors {
		b.WriteString("\n" + FormatError(e))
	}

	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}

// RenderVerdict renders the overall verdict line.
func RenderVerdict(verdict model.Verdict) string {
	switch verdict {
	case model.VerdictPositive:
		return PositiveStyle.Render("The overall sentiment is POSITIVE")
	case model.VerdictNegative:
		return NegativeStyle.Render("The overall sentiment is NEGATIVE")
	default:
		return NeutralStyle.Render("The overall sentiment is NEUTRAL")
	}
}

// RenderScores renders the score breakdown as percentages.
func RenderScores(scores model.SentimentScores) string {
	return fmt.Sprintf("Positive %.1f%%  Neutral %.1f%%  Negative %.1f%%",
		scores.Positive*100, scores.Neutral*100, scores.Negative*100)
}

// RenderTrend draws one bar per segment: right of the axis for positive,
// left for negative, a dot for neutral.
func RenderTrend(points []model.TrendPoint) string {
	var b strings.Builder
	blank := strings.Repeat(" ", trendBarWidth)
	bar := strings.Repeat("█", trendBarWidth)

	for i, p := range points {
		var left, right, label string
		switch p {
		case model.TrendPositive:
			left, right, label = blank, PositiveStyle.Render(bar), "positive"
		case model.TrendNegative:
			left, right, label = NegativeStyle.Render(bar), blank, "negative"
		default:
			left, right, label = blank, NeutralStyle.Render("·")+strings.Repeat(" ", trendBarWidth-1), "neutral"
		}
		fmt.Fprintf(&b, "  %2d %s│%s %+d %s\n", i+1, left, right, int(p), SubtleStyle.Render(label))
	}
	return b.String()
}

// RenderRedactions summarizes redaction counts, e.g. "Redacted: 2 EMAIL, 1 PHONE".
func RenderRedactions(counts model.RedactionCounts) string {
	if counts.Total() == 0 {
		return ""
	}

	categories := make([]string, 0, len(counts))
	for category, n := range counts {
		if n > 0 {
			categories = append(categories, string(category))
		}
	}
	sort.Strings(categories)

	parts := make([]string, 0, len(categories))
	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("%d %s", counts[model.RedactionCategory(category)], category))
	}
	return "Redacted: " + strings.Join(parts, ", ")
}

// RenderSummary renders the per-status totals of a batch.
func RenderSummary(batch model.BatchReport) string {
	summary := fmt.Sprintf("%d documents in %s: %d complete, %d degraded, %d failed, %d cancelled",
		len(batch.Reports),
		batch.Duration.Round(time.Millisecond),
		len(batch.Indices(model.StatusComplete)),
		len(batch.Indices(model.StatusDegraded)),
		len(batch.Indices(model.StatusFailed)),
		len(batch.Indices(model.StatusCancelled)))

	if len(batch.Indices(model.StatusFailed))+len(batch.Indices(model.StatusCancelled)) > 0 {
		return FormatWarning(summary)
	}
	return FormatSuccess(summary)
}

func renderStatus(status model.DocumentStatus) string {
	switch status {
	case model.StatusComplete:
		return PositiveStyle.Render(string(status))
	case model.StatusDegraded:
		return WarningStyle.Render(string(status))
	default:
		return NegativeStyle.Render(string(status))
	}
}
