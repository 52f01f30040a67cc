package driven

import (
	"context"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
)

// SyncedUpdate marks one mirror record as synced with its remote
// contact id. Updates are buffered by the syncer and flushed in
// batches.
type SyncedUpdate struct {
	CRMOrgID        int64
	RemoteContactID int64
}

// OrganizationStore is the local mirror of CRM organizations, the
// source of truth for sync state.
type OrganizationStore interface {
	// ReplaceAll clears the mirror and inserts all records with
	// synced=0, committing in batches of batchSize (full-reload mode).
	ReplaceAll(ctx context.Context, orgs []domain.Organization, batchSize int) error

	// Upsert inserts or updates records by CRM id in batches,
	// preserving the synced flag and remote contact id of existing
	// rows (incremental mode).
	Upsert(ctx context.Context, orgs []domain.Organization, batchSize int) error

	// ListUnsynced returns mirror records with synced=0 in stable
	// name order.
	ListUnsynced(ctx context.Context) ([]domain.Organization, error)

	// ListSynced returns mirror records with synced=1 in stable name
	// order, for maintenance commands.
	ListSynced(ctx context.Context) ([]domain.Organization, error)

	// MarkSynced applies buffered synced-flag updates in one
	// transaction.
	MarkSynced(ctx context.Context, updates []SyncedUpdate) error

	// Counts returns (total, synced) row counts for health checks.
	Counts(ctx context.Context) (total, synced int, err error)

	// CountStaleUnsynced counts records unsynced since before cutoff.
	CountStaleUnsynced(ctx context.Context, cutoff time.Time) (int, error)
}

// WatermarkStore persists the incremental-fetch boundary per sync type.
type WatermarkStore interface {
	// Get returns the watermark, or domain.ErrNotFound when absent
	// (meaning "perform full sync").
	Get(ctx context.Context, syncType string) (*domain.Watermark, error)

	// Save writes the watermark. Implementations must never move a
	// watermark backward in time.
	Save(ctx context.Context, mark domain.Watermark) error
}

// SyncLogStore appends to the run history. Rows are never updated.
type SyncLogStore interface {
	// Append inserts one run record.
	Append(ctx context.Context, run domain.SyncRun) error

	// Recent returns runs completed after since, newest first.
	Recent(ctx context.Context, since time.Time) ([]domain.SyncRun, error)
}
