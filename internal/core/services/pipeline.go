package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/core/ports/driving"
	"github.com/liveport/crmsync/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.Pipeline = (*PipelineService)(nil)

// PipelineService runs the fetch → reconcile → sync sequence and keeps
// the run log. Only one run may be active at a time.
type PipelineService struct {
	fetcher    *Fetcher
	reconciler *Reconciler
	syncer     *Syncer
	runLog     driven.SyncLogStore
	notifier   driven.Notifier

	// errorRateThreshold is the failed-record percentage above which
	// an alert is raised.
	errorRateThreshold float64

	running atomic.Bool
}

// NewPipelineService wires the pipeline from its collaborators.
func NewPipelineService(
	fetcher *Fetcher,
	reconciler *Reconciler,
	syncer *Syncer,
	runLog driven.SyncLogStore,
	notifier driven.Notifier,
	errorRateThreshold float64,
) *PipelineService {
	return &PipelineService{
		fetcher:            fetcher,
		reconciler:         reconciler,
		syncer:             syncer,
		runLog:             runLog,
		notifier:           notifier,
		errorRateThreshold: errorRateThreshold,
	}
}

// Run executes one sync. The returned run record reflects however far
// the pipeline got, even when err is non-nil. Dry runs are not recorded
// in the run log and write nothing.
func (p *PipelineService) Run(ctx context.Context, opts driving.RunOptions) (*domain.SyncRun, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSyncInProgress
	}
	defer p.running.Store(false)

	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		SyncType:  domain.SyncTypeOrganizations,
		StartedAt: time.Now().UTC(),
	}

	err := p.execute(ctx, opts, run)
	run.CompletedAt = time.Now().UTC()

	if err != nil {
		run.Status = domain.RunError
		if run.ErrorMessage == "" {
			run.ErrorMessage = err.Error()
		}
	}

	if !opts.DryRun {
		if logErr := p.runLog.Append(context.WithoutCancel(ctx), *run); logErr != nil {
			logger.Error("Recording sync run: %s", logErr)
		}
	}

	p.alertIfNeeded(ctx, run)
	return run, err
}

// execute performs the pipeline stages, filling run as it goes.
func (p *PipelineService) execute(ctx context.Context, opts driving.RunOptions, run *domain.SyncRun) error {
	fetchStart := time.Now().UTC()

	watermark, err := p.reconciler.Watermark(ctx)
	if err != nil {
		return err
	}

	var orgs []domain.Organization
	if opts.Incremental && !watermark.IsZero() {
		logger.Info("Fetching organizations changed since %s", watermark.Format(time.RFC3339))
		orgs, err = p.fetcher.FetchSince(ctx, watermark)
	} else {
		if opts.Incremental {
			logger.Info("No watermark yet, incremental run falls back to a full fetch")
		}
		orgs, err = p.fetcher.FetchAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	if !opts.DryRun {
		if opts.Incremental {
			err = p.reconciler.Merge(ctx, orgs)
		} else {
			err = p.reconciler.Reload(ctx, orgs)
		}
		if err != nil {
			return err
		}

		// The watermark is the start of the fetch, so changes made
		// while fetching are picked up again next run. An empty fetch
		// with no prior watermark writes nothing, keeping the next run
		// a full one.
		if len(orgs) > 0 || !watermark.IsZero() {
			if err := p.reconciler.AdvanceWatermark(ctx, fetchStart); err != nil {
				return err
			}
		}
	}

	result, err := p.syncer.SyncUnsynced(ctx, opts.DryRun)
	if result != nil {
		run.RecordsProcessed = result.Processed
		run.RecordsSynced = result.Synced
		run.ErrorMessage = result.ErrorSummary()
		run.Status = domain.StatusFor(result.Processed, result.Synced)
	}
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// alertIfNeeded raises a notification when the failed-record rate
// crosses the threshold. Delivery is fire-and-forget.
func (p *PipelineService) alertIfNeeded(ctx context.Context, run *domain.SyncRun) {
	if run.RecordsProcessed == 0 || run.ErrorRate() <= p.errorRateThreshold {
		return
	}

	alert := domain.Alert{
		Script:   "sync",
		Category: "High Error Rate",
		Message: fmt.Sprintf("%d of %d records failed (%.1f%%)",
			run.Errors(), run.RecordsProcessed, run.ErrorRate()),
		Details: map[string]any{
			"run_id":            run.ID,
			"records_processed": run.RecordsProcessed,
			"records_synced":    run.RecordsSynced,
			"error_message":     run.ErrorMessage,
		},
		Level: domain.AlertError,
	}
	if err := p.notifier.Notify(context.WithoutCancel(ctx), alert); err != nil {
		logger.Warn("Could not deliver alert: %s", err)
	}
}
