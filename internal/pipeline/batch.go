package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/lumos/internal/common"
	"github.com/Veraticus/lumos/internal/metrics"
	"github.com/Veraticus/lumos/internal/model"
	"github.com/google/uuid"
)

// ErrNoTranscriber is reported for audio input when no transcriber is configured.
var ErrNoTranscriber = errors.New("no transcriber configured")

// ProcessBatch processes conversations concurrently with a bounded worker
// pool. The report for convs[i] is always at Reports[i], including documents
// that were never started because ctx was canceled.
func (p *Pipeline) ProcessBatch(ctx context.Context, convs []model.Conversation) model.BatchReport {
	return p.run(ctx, len(convs), func(ctx context.Context, idx int) model.DocumentReport {
		return p.process(ctx, idx, convs[idx])
	}, func(idx int) model.Conversation {
		return convs[idx]
	})
}

// ProcessAudio transcribes each recording and processes the transcript as an
// audio-origin conversation. A recording without recognizable speech is an
// empty document, not a failure.
func (p *Pipeline) ProcessAudio(ctx context.Context, paths []string) model.BatchReport {
	return p.run(ctx, len(paths), func(ctx context.Context, idx int) model.DocumentReport {
		conv := audioConversation(paths[idx], "")

		text, err := p.transcribe(ctx, paths[idx])
		if err != nil {
			p.logger.Warn("transcription failed", "index", idx, "source", conv.Source, "error", err)
			report := newReport(idx, conv)
			failReport(&report, err, "transcription failed")
			return p.finish(report)
		}

		conv.Text = text
		return p.process(ctx, idx, conv)
	}, func(idx int) model.Conversation {
		return audioConversation(paths[idx], "")
	})
}

func audioConversation(path, text string) model.Conversation {
	return model.Conversation{
		ID:     uuid.NewString(),
		Source: filepath.Base(path),
		Origin: model.OriginAudio,
		Text:   text,
	}
}

func (p *Pipeline) transcribe(ctx context.Context, path string) (string, error) {
	if p.transcriber == nil {
		return "", ErrNoTranscriber
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		start := time.Now()
		var err error
		text, err = p.transcriber.Transcribe(ctx, path)
		metrics.ObserveCall("transcriber", "configured", start, err)
		return err
	}, p.config.Retry)
	return text, err
}

// run fans n items out over the worker pool.
func (p *Pipeline) run(
	ctx context.Context,
	n int,
	work func(ctx context.Context, idx int) model.DocumentReport,
	describe func(idx int) model.Conversation,
) model.BatchReport {
	batch := model.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Reports:   make([]model.DocumentReport, n),
	}
	logger := p.logger.With("run_id", batch.RunID)
	logger.Info("Starting batch", "documents", n, "workers", p.config.Workers)

	sem := make(chan struct{}, p.config.Workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			var report model.DocumentReport
			// Acquire semaphore
			select {
			case sem <- struct{}{}:
				report = work(ctx, idx)
				<-sem
			case <-ctx.Done():
				report = newReport(idx, describe(idx))
				failReport(&report, ctx.Err(), "not started")
				report = p.finish(report)
			}

			batch.Reports[idx] = report
			if p.config.OnDocument != nil {
				p.config.OnDocument(report)
			}
		}(i)
	}

	wg.Wait()
	batch.Duration = time.Since(batch.StartedAt)

	logger.Info("Batch complete",
		"duration", batch.Duration,
		"complete", len(batch.Indices(model.StatusComplete)),
		"degraded", len(batch.Indices(model.StatusDegraded)),
		"failed", len(batch.Indices(model.StatusFailed)),
		"cancelled", len(batch.Indices(model.StatusCancelled)))

	return batch
}
