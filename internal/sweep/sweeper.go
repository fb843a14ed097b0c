// Package sweep reconciles receipts stuck in ocr_done by classifying them in
// batches, either on demand or on a cron schedule.
//
// The sweep is what converges the system after a crash between the audit
// write and the finalize write, and what picks up OCR backfills that never
// triggered a categorize call.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerloom/receiptd/internal/engine"
	"github.com/ledgerloom/receiptd/internal/model"
	"github.com/ledgerloom/receiptd/internal/service"
)

// DefaultWorkers bounds concurrent classifications in one sweep. The LLM API
// is the limiting resource, not local CPU.
const DefaultWorkers = 4

// Stats summarizes one sweep run.
type Stats struct {
	Total       int
	Categorized int
	NeedsReview int
	Failed      int
}

// Sweeper batch-classifies every receipt still in ocr_done.
type Sweeper struct {
	store        service.ReceiptStore
	orchestrator *engine.Orchestrator
	logger       *slog.Logger
	// OnProgress, when set, is called after each receipt completes.
	OnProgress func(done, total int)
	workers    int
}

// New creates a sweeper running at most workers classifications at once.
func New(store service.ReceiptStore, orchestrator *engine.Orchestrator, workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:        store,
		orchestrator: orchestrator,
		logger:       logger,
		workers:      workers,
	}
}

// Run classifies all ocr_done receipts once and returns aggregate stats.
// Individual receipt failures are counted and logged, not propagated; only a
// canceled context aborts the sweep.
func (s *Sweeper) Run(ctx context.Context) (Stats, error) {
	receipts, err := s.store.ListReceiptsByStatus(ctx, model.StatusOCRDone, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list receipts: %w", err)
	}

	stats := Stats{Total: len(receipts)}
	if len(receipts) == 0 {
		return stats, nil
	}

	s.logger.Info("sweep started", "receipts", len(receipts), "workers", s.workers)

	var categorized, needsReview, failed, done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, receipt := range receipts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			decision, err := s.orchestrator.Classify(ctx, receipt.ID)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Error("sweep classification failed",
					"receipt_id", receipt.ID,
					"error", err)
			case decision.NeedsReview:
				needsReview.Add(1)
			default:
				categorized.Add(1)
			}

			if s.OnProgress != nil {
				s.OnProgress(int(done.Add(1)), len(receipts))
			}
			return nil
		})
	}

	err = g.Wait()

	stats.Categorized = int(categorized.Load())
	stats.NeedsReview = int(needsReview.Load())
	stats.Failed = int(failed.Load())

	s.logger.Info("sweep finished",
		"total", stats.Total,
		"categorized", stats.Categorized,
		"needs_review", stats.NeedsReview,
		"failed", stats.Failed)

	return stats, err
}

// Schedule runs sweeps on the given cron expression until ctx is canceled.
func (s *Sweeper) Schedule(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Run(ctx); err != nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	c.Start()
	s.logger.Info("sweep scheduler started", "schedule", spec)

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
