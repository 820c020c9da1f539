// Package pipeline runs conversations through anonymization, segmentation and
// sentiment scoring, and assembles the per-document reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/decision"
	"github.com/Veraticus/lumos/internal/metrics"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/redact"
	"github.com/Veraticus/lumos/internal/segment"
	"github.com/Veraticus/lumos/internal/service"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Notes attached to reports whose sentiment could not be computed.
const (
	NoteSentimentUnavailable = "sentiment unavailable for this item"
	NoteTrendUnavailable     = "segment sentiment unavailable for this item"
	NoteTrendInsufficient    = "not enough for sequential analysis"
	NoteEmptyInput           = "no text to analyze"
)

// Pipeline orchestrates the collaborators for one or more documents.
// Collaborators are injected; a Pipeline holds no per-run state and is safe
// for concurrent use.
type Pipeline struct {
	anonymizer  *redact.Anonymizer
	analyzer    service.SentimentAnalyzer
	transcriber service.Transcriber
	logger      *slog.Logger
	policy      segment.Policy
	config      Config
}

// Config holds concurrency and timeout settings.
type Config struct {
	// OnDocument, if set, is called once per finished document in a batch.
	// It may be called from several goroutines at once.
	OnDocument func(model.DocumentReport)
	// Retry applies to transcription calls.
	Retry           service.RetryOptions
	Workers         int
	SegmentWorkers  int
	DocumentTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		SegmentWorkers: 4,
	}
}

// New creates a Pipeline with the default configuration. transcriber may be
// nil when audio input is not used.
func New(anonymizer *redact.Anonymizer, policy segment.Policy, analyzer service.SentimentAnalyzer, transcriber service.Transcriber, logger *slog.Logger) (*Pipeline, error) {
	return NewWithConfig(anonymizer, policy, analyzer, transcriber, DefaultConfig(), logger)
}

// NewWithConfig creates a Pipeline with custom configuration.
func NewWithConfig(anonymizer *redact.Anonymizer, policy segment.Policy, analyzer service.SentimentAnalyzer, transcriber service.Transcriber, config Config, logger *slog.Logger) (*Pipeline, error) {
	if anonymizer == nil {
		return nil, fmt.Errorf("anonymizer is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("sentiment analyzer is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.SegmentWorkers <= 0 {
		config.SegmentWorkers = defaults.SegmentWorkers
	}

	return &Pipeline{
		anonymizer:  anonymizer,
		analyzer:    analyzer,
		transcriber: transcriber,
		policy:      policy,
		config:      config,
		logger:      common.OrDefault(logger),
	}, nil
}

// Anonymize redacts each text. See redact.Anonymizer.Anonymize.
func (p *Pipeline) Anonymize(ctx context.Context, texts []string) ([]string, error) {
	return p.anonymizer.Anonymize(ctx, texts)
}

// FullSentiment scores text as a single document.
func (p *Pipeline) FullSentiment(ctx context.Context, text string) (model.SentimentResult, error) {
	if text == "" {
		return model.EmptySentiment(), nil
	}
	return p.analyzer.Analyze(ctx, text)
}

// SegmentedSentiment splits text and scores every segment. Results are
// index-aligned with the returned segments. Segments are scored
// independently: a failure leaves a zero result at its index, the other
// segments still complete, and every failing index is listed in the returned
// *common.BatchError.
func (p *Pipeline) SegmentedSentiment(ctx context.Context, text string) ([]model.Segment, []model.SentimentResult, error) {
	segments := p.policy.Split(text)
	results := make([]model.SentimentResult, len(segments))
	batchErr := &common.BatchError{Total: len(segments)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(p.config.SegmentWorkers)

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			result, err := p.FullSentiment(ctx, seg.Text)
			if err != nil {
				mu.Lock()
				batchErr.Add(i, "segment sentiment", err)
				mu.Unlock()
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return segments, results, batchErr.ErrOrNil()
}

// Process runs one conversation through the whole pipeline. It never returns
// an error: failures are recorded on the report's Status, Notes and Errors.
func (p *Pipeline) Process(ctx context.Context, conv model.Conversation) model.DocumentReport {
	return p.process(ctx, 0, conv)
}

func (p *Pipeline) process(ctx context.Context, index int, conv model.Conversation) model.DocumentReport {
	metrics.DocumentsInFlight.Inc()
	defer metrics.DocumentsInFlight.Dec()

	if p.config.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.DocumentTimeout)
		defer cancel()
	}

	report := newReport(index, conv)
	logger := p.logger.With("index", index, "document_id", report.ID)

	if err := ctx.Err(); err != nil {
		failReport(&report, err, "not started")
		return p.finish(report)
	}

	anonymized, err := p.anonymizer.AnonymizeText(ctx, conv.Text)
	if err != nil {
		// Sentiment is never computed on text that was not anonymized.
		logger.Warn("anonymization failed", "error", err)
		failReport(&report, err, "anonymization failed")
		return p.finish(report)
	}
	report.Anonymized = anonymized.Text
	report.Redactions = anonymized.Counts
	if anonymized.Text == "" {
		report.Notes = append(report.Notes, NoteEmptyInput)
	}

	segments, segmentResults, segErr := p.SegmentedSentiment(ctx, anonymized.Text)
	report.Segments = segments
	report.SegmentResults = segmentResults
	if segErr != nil {
		logger.Warn("segment sentiment failed", "error", segErr)
		report.SegmentErrors = segmentFailures(segErr)
		degradeReport(&report, segErr, NoteTrendUnavailable)
	} else {
		report.Trend, report.TrendAvailable = decision.Trend(segmentResults)
		if !report.TrendAvailable {
			report.Notes = append(report.Notes, NoteTrendInsufficient)
		}
	}

	full, fullErr := p.FullSentiment(ctx, anonymized.Text)
	if fullErr != nil {
		logger.Warn("full sentiment failed", "error", fullErr)
		degradeReport(&report, fullErr, NoteSentimentUnavailable)
	} else {
		report.Full = &full
		report.Verdict = decision.Verdict(full)
	}

	if common.IsCancellation(segErr) || common.IsCancellation(fullErr) {
		report.Status = model.StatusCancelled
	}

	logger.Debug("document processed",
		"status", report.Status,
		"verdict", report.Verdict,
		"segments", len(report.Segments),
		"redacted", report.Redactions.Total())

	return p.finish(report)
}

func (p *Pipeline) finish(report model.DocumentReport) model.DocumentReport {
	metrics.DocumentsProcessed.WithLabelValues(string(report.Status)).Inc()
	if report.Verdict != "" {
		metrics.Verdicts.WithLabelValues(string(report.Verdict)).Inc()
	}
	return report
}

func newReport(index int, conv model.Conversation) model.DocumentReport {
	id := conv.ID
	if id == "" {
		id = uuid.NewString()
	}
	return model.DocumentReport{
		Index:  index,
		ID:     id,
		Source: conv.Source,
		Origin: conv.Origin,
		Status: model.StatusComplete,
	}
}

// failReport marks r failed, or cancelled when err came from the context.
func failReport(r *model.DocumentReport, err error, note string) {
	r.Errors = append(r.Errors, err.Error())
	r.Notes = append(r.Notes, note)
	if common.IsCancellation(err) {
		r.Status = model.StatusCancelled
		return
	}
	r.Status = model.StatusFailed
}

// segmentFailures lists the failing segments of a SegmentedSentiment error.
func segmentFailures(err error) []model.SegmentFailure {
	var batchErr *common.BatchError
	if !errors.As(err, &batchErr) {
		return nil
	}
	out := make([]model.SegmentFailure, 0, len(batchErr.Failures))
	for _, f := range batchErr.Failures {
		status := model.StatusFailed
		if common.IsCancellation(f.Err) {
			status = model.StatusCancelled
		}
		out = append(out, model.SegmentFailure{Index: f.Index, Status: status, Error: f.Err.Error()})
	}
	return out
}

// degradeReport records a partial failure without losing a worse status.
func degradeReport(r *model.DocumentReport, err error, note string) {
	r.Errors = append(r.Errors, err.Error())
	r.Notes = append(r.Notes, note)
	if r.Status == model.StatusComplete {
		r.Status = model.StatusDegraded
	}
}
