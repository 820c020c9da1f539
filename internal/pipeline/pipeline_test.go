package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/Veraticus/lumos/internal/ner"
	"github.com/Veraticus/lumos/internal/redact"
	"github.com/Veraticus/lumos/internal/segment"
	"github.com/Veraticus/lumos/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

// fieldTokenizer returns one untagged token per whitespace-separated word.
type fieldTokenizer struct {
	failOn map[string]error
}

func (f fieldTokenizer) Tokenize(_ context.Context, text string) ([]model.Token, error) {
	if err, ok := f.failOn[text]; ok {
		return nil, err
	}
	var tokens []model.Token
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, model.Token{Text: word, Entity: model.EntityNone})
	}
	return tokens, nil
}

// stubAnalyzer labels text by its first letter: p, n, m or anything else
// (neutral). Texts in failOn return that error, texts in blockOn wait for
// the context, and every other call takes delay.
type stubAnalyzer struct {
	failOn  map[string]error
	blockOn map[string]bool
	failAll error
	texts   []string
	delay   time.Duration
	mu      sync.Mutex
	block   bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (model.SentimentResult, error) {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.mu.Unlock()

	if s.block || s.blockOn[text] {
		<-ctx.Done()
		return model.SentimentResult{}, ctx.Err()
	}
	if s.failAll != nil {
		return model.SentimentResult{}, s.failAll
	}
	if err, ok := s.failOn[text]; ok {
		return model.SentimentResult{}, err
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return model.SentimentResult{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}

	switch text[0] {
	case 'p':
		return model.SentimentResult{Label: model.LabelPositive, Scores: model.SentimentScores{Positive: 0.8, Neutral: 0.15, Negative: 0.05}}, nil
	case 'n':
		return model.SentimentResult{Label: model.LabelNegative, Scores: model.SentimentScores{Positive: 0.05, Neutral: 0.15, Negative: 0.8}}, nil
	case 'm':
		return model.SentimentResult{Label: model.LabelMixed, Scores: model.SentimentScores{Positive: 0.3, Neutral: 0.4, Negative: 0.3}}, nil
	default:
		return model.SentimentResult{Label: model.LabelNeutral, Scores: model.SentimentScores{Positive: 0.1, Neutral: 0.8, Negative: 0.1}}, nil
	}
}

func (s *stubAnalyzer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

// stubTranscriber maps file paths to transcripts or errors.
type stubTranscriber struct {
	transcripts map[string]string
	errs        map[string]error
}

func (s stubTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	if err, ok := s.errs[path]; ok {
		return "", err
	}
	return s.transcripts[path], nil
}

func newTestPipeline(t *testing.T, tokenizer service.Tokenizer, analyzer service.SentimentAnalyzer, transcriber service.Transcriber, cfg Config) *Pipeline {
	t.Helper()
	anonymizer, err := redact.NewAnonymizer(tokenizer, redact.Config{Retry: fastRetry}, nil)
	require.NoError(t, err)
	cfg.Retry = fastRetry
	p, err := NewWithConfig(anonymizer, segment.DefaultPolicy(), analyzer, transcriber, cfg, nil)
	require.NoError(t, err)
	return p
}

// blockText builds a block of 97 copies of letter followed by three periods.
func blockText(letter string) string {
	return strings.Repeat(letter, 97) + "..."
}

func TestNewWithConfig(t *testing.T) {
	anonymizer, err := redact.NewAnonymizer(fieldTokenizer{}, redact.Config{}, nil)
	require.NoError(t, err)

	_, err = NewWithConfig(nil, segment.DefaultPolicy(), &stubAnalyzer{}, nil, Config{}, nil)
	assert.Error(t, err)

	_, err = NewWithConfig(anonymizer, segment.DefaultPolicy(), nil, nil, Config{}, nil)
	assert.Error(t, err)

	_, err = NewWithConfig(anonymizer, segment.Policy{Parts: 0}, &stubAnalyzer{}, nil, Config{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	p, err := New(anonymizer, segment.DefaultPolicy(), &stubAnalyzer{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Workers, p.config.Workers)
	assert.Equal(t, segment.DefaultPolicy(), p.policy)
}

func TestProcessRedactsBeforeScoring(t *testing.T) {
	analyzer := &stubAnalyzer{}
	p := newTestPipeline(t, ner.SimpleTokenizer{}, analyzer, nil, Config{})

	report := p.Process(context.Background(), model.Conversation{
		ID:     "doc-1",
		Origin: model.OriginTyped,
		Text:   "Contact me at 7807167473 or fardad@example.com, born 03/14/1996, male.",
	})

	assert.Equal(t, model.StatusComplete, report.Status)
	assert.Equal(t, "doc-1", report.ID)
	assert.Equal(t, "Contact me at [PHONE] or [EMAIL] , born [DOB] , [GENDER] .", report.Anonymized)
	assert.Equal(t, 1, report.Redactions[model.RedactPhone])
	assert.Equal(t, 4, report.Redactions.Total())

	for _, text := range analyzer.texts {
		assert.NotContains(t, text, "7807167473")
		assert.NotContains(t, text, "fardad@example.com")
	}

	require.Len(t, report.Segments, 1)
	assert.False(t, report.TrendAvailable)
	assert.Nil(t, report.Trend)
	assert.Contains(t, report.Notes, NoteTrendInsufficient)
	assert.Equal(t, model.VerdictNeutral, report.Verdict)
}

func TestProcessSegmentedTrend(t *testing.T) {
	text := blockText("p") + blockText("n") + blockText("m") + blockText("p")
	require.Len(t, text, 400)

	p := newTestPipeline(t, fieldTokenizer{}, &stubAnalyzer{}, nil, Config{})
	report := p.Process(context.Background(), model.Conversation{Text: text})

	assert.Equal(t, model.StatusComplete, report.Status)
	assert.NotEmpty(t, report.ID)
	require.Len(t, report.Segments, 4)
	for i, seg := range report.Segments {
		assert.Equal(t, 100, seg.Len())
		assert.Equal(t, i, seg.Index)
	}
	assert.True(t, report.TrendAvailable)
	assert.Equal(t, []model.TrendPoint{model.TrendPositive, model.TrendNegative, model.TrendNeutral, model.TrendPositive}, report.Trend)
	require.NotNil(t, report.Full)
	assert.Equal(t, model.VerdictPositive, report.Verdict)
}

func TestProcessEmptyText(t *testing.T) {
	analyzer := &stubAnalyzer{}
	p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil, Config{})

	report := p.Process(context.Background(), model.Conversation{Text: ""})

	assert.Equal(t, model.StatusComplete, report.Status)
	assert.Equal(t, "", report.Anonymized)
	assert.Equal(t, []model.Segment{{Text: "", Index: 0, Start: 0, End: 0}}, report.Segments)
	assert.Equal(t, []model.SentimentResult{model.EmptySentiment()}, report.SegmentResults)
	assert.Equal(t, model.VerdictNeutral, report.Verdict)
	assert.Contains(t, report.Notes, NoteEmptyInput)
	assert.Equal(t, 0, analyzer.calls())
}

func TestProcessDegradedSentiment(t *testing.T) {
	analyzer := &stubAnalyzer{failAll: common.Unavailable("sentiment", errors.New("503"))}
	p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil, Config{})

	report := p.Process(context.Background(), model.Conversation{Text: "positive words here"})

	assert.Equal(t, model.StatusDegraded, report.Status)
	assert.Equal(t, "positive words here", report.Anonymized)
	assert.Nil(t, report.Full)
	assert.Empty(t, report.Verdict)
	assert.Contains(t, report.Notes, NoteSentimentUnavailable)
	assert.Contains(t, report.Notes, NoteTrendUnavailable)
	assert.Len(t, report.Errors, 2)
	require.Len(t, report.SegmentErrors, 1)
	assert.Equal(t, model.StatusFailed, report.SegmentErrors[0].Status)
}

func TestProcessKeepsSucceededSegments(t *testing.T) {
	text := blockText("p") + blockText("n") + blockText("m") + blockText("p")
	analyzer := &stubAnalyzer{failOn: map[string]error{
		blockText("n"): common.Unavailable("sentiment", errors.New("503")),
	}}
	p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil, Config{})

	report := p.Process(context.Background(), model.Conversation{Text: text})

	assert.Equal(t, model.StatusDegraded, report.Status)
	require.Len(t, report.SegmentResults, 4)
	assert.Equal(t, model.LabelPositive, report.SegmentResults[0].Label)
	assert.Empty(t, report.SegmentResults[1].Label)
	assert.Equal(t, model.LabelMixed, report.SegmentResults[2].Label)
	assert.Equal(t, model.LabelPositive, report.SegmentResults[3].Label)

	require.Len(t, report.SegmentErrors, 1)
	assert.Equal(t, 1, report.SegmentErrors[0].Index)
	assert.Equal(t, model.StatusFailed, report.SegmentErrors[0].Status)

	assert.False(t, report.TrendAvailable)
	assert.Nil(t, report.Trend)
	assert.Contains(t, report.Notes, NoteTrendUnavailable)
	require.NotNil(t, report.Full)
	assert.Equal(t, model.VerdictPositive, report.Verdict)
}

func TestProcessAnonymizationFailure(t *testing.T) {
	analyzer := &stubAnalyzer{}
	tokenizer := fieldTokenizer{failOn: map[string]error{
		"secret text": common.Malformed("tokenizer", errors.New("bad")),
	}}
	p := newTestPipeline(t, tokenizer, analyzer, nil, Config{})

	report := p.Process(context.Background(), model.Conversation{Text: "secret text"})

	assert.Equal(t, model.StatusFailed, report.Status)
	assert.Empty(t, report.Anonymized)
	assert.Equal(t, 0, analyzer.calls())
	require.Len(t, report.Errors, 1)
}

func TestProcessDocumentTimeout(t *testing.T) {
	p := newTestPipeline(t, fieldTokenizer{}, &stubAnalyzer{block: true}, nil,
		Config{DocumentTimeout: 20 * time.Millisecond})

	report := p.Process(context.Background(), model.Conversation{Text: "slow document"})
	assert.Equal(t, model.StatusCancelled, report.Status)
	require.Len(t, report.SegmentErrors, 1)
	assert.Equal(t, model.StatusCancelled, report.SegmentErrors[0].Status)
}

func TestProcessDocumentTimeoutKeepsFinishedSegments(t *testing.T) {
	text := blockText("p") + blockText("n") + blockText("u") + blockText("p")
	analyzer := &stubAnalyzer{blockOn: map[string]bool{blockText("u"): true}}
	p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil,
		Config{DocumentTimeout: 50 * time.Millisecond})

	report := p.Process(context.Background(), model.Conversation{Text: text})

	assert.Equal(t, model.StatusCancelled, report.Status)
	require.Len(t, report.SegmentResults, 4)
	assert.Equal(t, model.LabelPositive, report.SegmentResults[0].Label)
	assert.Equal(t, model.LabelNegative, report.SegmentResults[1].Label)
	assert.Empty(t, report.SegmentResults[2].Label)
	assert.Equal(t, model.LabelPositive, report.SegmentResults[3].Label)

	require.Len(t, report.SegmentErrors, 1)
	assert.Equal(t, 2, report.SegmentErrors[0].Index)
	assert.Equal(t, model.StatusCancelled, report.SegmentErrors[0].Status)
	assert.Contains(t, report.SegmentErrors[0].Error, context.DeadlineExceeded.Error())
	assert.False(t, report.TrendAvailable)
}

func TestSegmentedSentiment(t *testing.T) {
	t.Run("results follow segment order", func(t *testing.T) {
		p := newTestPipeline(t, fieldTokenizer{}, &stubAnalyzer{}, nil, Config{SegmentWorkers: 2})
		text := blockText("n") + blockText("u") + blockText("p") + blockText("n")

		segments, results, err := p.SegmentedSentiment(context.Background(), text)
		require.NoError(t, err)
		require.Len(t, results, len(segments))
		assert.Equal(t, model.LabelNegative, results[0].Label)
		assert.Equal(t, model.LabelNeutral, results[1].Label)
		assert.Equal(t, model.LabelPositive, results[2].Label)
		assert.Equal(t, model.LabelNegative, results[3].Label)
	})

	t.Run("siblings complete when one segment fails", func(t *testing.T) {
		text := blockText("n") + blockText("u") + blockText("p") + blockText("n")
		analyzer := &stubAnalyzer{
			failOn: map[string]error{blockText("p"): common.Malformed("sentiment", errors.New("bad"))},
			delay:  20 * time.Millisecond,
		}
		p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil, Config{SegmentWorkers: 4})

		segments, results, err := p.SegmentedSentiment(context.Background(), text)
		require.Error(t, err)
		require.Len(t, segments, 4)
		require.Len(t, results, 4)
		assert.Equal(t, model.LabelNegative, results[0].Label)
		assert.Equal(t, model.LabelNeutral, results[1].Label)
		assert.Equal(t, model.SentimentResult{}, results[2])
		assert.Equal(t, model.LabelNegative, results[3].Label)

		var batchErr *common.BatchError
		require.ErrorAs(t, err, &batchErr)
		require.Len(t, batchErr.Failures, 1)
		assert.True(t, batchErr.Failed(2))
		assert.Equal(t, 4, batchErr.Total)
		assert.ErrorIs(t, err, common.ErrMalformedResponse)
		assert.False(t, common.IsCancellation(err))
	})

	t.Run("every failing index is reported", func(t *testing.T) {
		text := blockText("n") + blockText("u") + blockText("p") + blockText("m")
		analyzer := &stubAnalyzer{failOn: map[string]error{
			blockText("u"): common.Malformed("sentiment", errors.New("bad")),
			blockText("m"): common.Unavailable("sentiment", errors.New("503")),
		}}
		p := newTestPipeline(t, fieldTokenizer{}, analyzer, nil, Config{SegmentWorkers: 1})

		_, results, err := p.SegmentedSentiment(context.Background(), text)
		var batchErr *common.BatchError
		require.ErrorAs(t, err, &batchErr)
		require.Len(t, batchErr.Failures, 2)
		assert.Equal(t, 1, batchErr.Failures[0].Index)
		assert.Equal(t, 3, batchErr.Failures[1].Index)
		assert.ErrorIs(t, batchErr.For(1), common.ErrMalformedResponse)
		assert.ErrorIs(t, batchErr.For(3), common.ErrCollaboratorUnavailable)
		assert.Nil(t, batchErr.For(0))

		assert.Equal(t, model.LabelNegative, results[0].Label)
		assert.Equal(t, model.LabelPositive, results[2].Label)
		assert.Equal(t, 4, analyzer.calls())
	})
}

func TestPipelineAnonymize(t *testing.T) {
	tokenizer := fieldTokenizer{failOn: map[string]error{"bad": common.Malformed("tokenizer", errors.New("x"))}}
	p := newTestPipeline(t, tokenizer, &stubAnalyzer{}, nil, Config{})

	out, err := p.Anonymize(context.Background(), []string{"call 5551234567", "bad", ""})
	require.Len(t, out, 3)
	assert.Equal(t, "call [PHONE]", out[0])
	assert.Equal(t, "", out[1])
	assert.Equal(t, "", out[2])

	var batchErr *common.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.True(t, batchErr.Failed(1))
}
