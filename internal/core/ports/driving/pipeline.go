package driving

import (
	"context"

	"github.com/liveport/crmsync/internal/core/domain"
)

// RunOptions select the pipeline mode for one execution.
type RunOptions struct {
	// Incremental fetches only CRM changes since the watermark and
	// upserts the mirror. False means full fetch + mirror reload.
	Incremental bool

	// DryRun previews the sync without mutating the support desk or
	// the mirror's synced flags.
	DryRun bool
}

// Pipeline runs the fetch → reconcile → sync sequence.
type Pipeline interface {
	// Run executes one sync and returns its run record. The record is
	// returned even when err is non-nil, as far as it got.
	Run(ctx context.Context, opts RunOptions) (*domain.SyncRun, error)
}

// HealthReport aggregates the health checks of the check command.
type HealthReport struct {
	Healthy bool
	Checks  []HealthCheck
}

// HealthCheck is one named probe result.
type HealthCheck struct {
	Name    string
	Healthy bool
	Detail  string
	Issues  []string
}

// HealthChecker probes both APIs, the mirror and data consistency.
type HealthChecker interface {
	Check(ctx context.Context) (*HealthReport, error)
}
