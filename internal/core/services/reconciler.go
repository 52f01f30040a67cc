package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/logger"
)

// Reconciler writes fetched organizations into the local mirror and
// maintains the incremental-fetch watermark.
type Reconciler struct {
	orgs      driven.OrganizationStore
	marks     driven.WatermarkStore
	batchSize int
}

// NewReconciler creates a reconciler committing in batches of batchSize.
func NewReconciler(orgs driven.OrganizationStore, marks driven.WatermarkStore, batchSize int) *Reconciler {
	return &Reconciler{
		orgs:      orgs,
		marks:     marks,
		batchSize: batchSize,
	}
}

// Reload replaces the whole mirror with the fetched set, resetting
// every synced flag (full-reload mode).
func (r *Reconciler) Reload(ctx context.Context, orgs []domain.Organization) error {
	if err := r.orgs.ReplaceAll(ctx, orgs, r.batchSize); err != nil {
		return fmt.Errorf("reload mirror: %w", err)
	}
	logger.Info("Mirror reloaded with %d organizations", len(orgs))
	return nil
}

// Merge upserts the fetched set into the mirror, preserving sync state
// of untouched rows (incremental mode).
func (r *Reconciler) Merge(ctx context.Context, orgs []domain.Organization) error {
	if err := r.orgs.Upsert(ctx, orgs, r.batchSize); err != nil {
		return fmt.Errorf("merge mirror: %w", err)
	}
	logger.Info("Mirror merged with %d changed organizations", len(orgs))
	return nil
}

// Watermark returns the incremental boundary for the organization sync,
// or a zero time when no fetch has completed yet.
func (r *Reconciler) Watermark(ctx context.Context) (time.Time, error) {
	mark, err := r.marks.Get(ctx, domain.SyncTypeOrganizations)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("read watermark: %w", err)
	}
	return mark.LastSynced, nil
}

// AdvanceWatermark records at as the new boundary. The store ignores
// marks older than the current one.
func (r *Reconciler) AdvanceWatermark(ctx context.Context, at time.Time) error {
	err := r.marks.Save(ctx, domain.Watermark{
		SyncType:   domain.SyncTypeOrganizations,
		LastSynced: at,
	})
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}
