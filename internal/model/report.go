package model

import "time"

// DocumentStatus summarizes how far a document got through the pipeline.
type DocumentStatus string

// Document statuses.
const (
	StatusComplete  DocumentStatus = "complete"
	StatusDegraded  DocumentStatus = "degraded"
	StatusFailed    DocumentStatus = "failed"
	StatusCancelled DocumentStatus = "cancelled"
)

// DocumentReport is the dashboard artifact for one conversation.
type DocumentReport struct {
	Full           *SentimentResult  `json:"full,omitempty" yaml:"full,omitempty"`
	Redactions     RedactionCounts   `json:"redactions,omitempty" yaml:"redactions,omitempty"`
	ID             string            `json:"id" yaml:"id"`
	Source         string            `json:"source,omitempty" yaml:"source,omitempty"`
	Origin         Origin            `json:"origin" yaml:"origin"`
	Anonymized     string            `json:"anonymized" yaml:"anonymized"`
	Verdict        Verdict           `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Status         DocumentStatus    `json:"status" yaml:"status"`
	Notes          []string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Errors         []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
	Segments       []Segment         `json:"segments,omitempty" yaml:"segments,omitempty"`
	SegmentResults []SentimentResult `json:"segment_results,omitempty" yaml:"segment_results,omitempty"`
	SegmentErrors  []SegmentFailure  `json:"segment_errors,omitempty" yaml:"segment_errors,omitempty"`
	Trend          []TrendPoint      `json:"trend,omitempty" yaml:"trend,omitempty"`
	Index          int               `json:"index" yaml:"index"`
	TrendAvailable bool              `json:"trend_available" yaml:"trend_available"`
}

// SegmentFailure records a segment whose sentiment could not be computed.
// The matching SegmentResults entry is left zero.
type SegmentFailure struct {
	Error  string         `json:"error" yaml:"error"`
	Status DocumentStatus `json:"status" yaml:"status"`
	Index  int            `json:"index" yaml:"index"`
}

// BatchReport collects the reports of one pipeline run, index-aligned with
// the input documents.
type BatchReport struct {
	StartedAt time.Time        `json:"started_at" yaml:"started_at"`
	RunID     string           `json:"run_id" yaml:"run_id"`
	Reports   []DocumentReport `json:"reports" yaml:"reports"`
	Duration  time.Duration    `json:"duration" yaml:"duration"`
}

// Indices returns the indices of reports with the given status.
func (b BatchReport) Indices(status DocumentStatus) []int {
	var out []int
	for _, r := range b.Reports {
		if r.Status == status {
			out = append(out, r.Index)
		}
	}
	return out
}
