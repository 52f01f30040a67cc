package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// watermarkStore implements driven.WatermarkStore.
type watermarkStore struct {
	store *Store
}

var _ driven.WatermarkStore = (*watermarkStore)(nil)

// Get returns the watermark for a sync type, or domain.ErrNotFound when
// no fetch has completed yet.
func (s *watermarkStore) Get(ctx context.Context, syncType string) (*domain.Watermark, error) {
	mark := domain.Watermark{SyncType: syncType}
	row := s.store.db.QueryRowContext(ctx, `
		SELECT last_synced FROM sync_metadata WHERE sync_type = ?
	`, syncType)
	if err := row.Scan(&mark.LastSynced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying watermark: %w", err)
	}
	return &mark, nil
}

// Save writes the watermark. A mark older than the stored one is a
// no-op so the boundary never moves backward.
func (s *watermarkStore) Save(ctx context.Context, mark domain.Watermark) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (sync_type, last_synced)
		VALUES (?, ?)
		ON CONFLICT(sync_type) DO UPDATE SET
			last_synced = excluded.last_synced
		WHERE excluded.last_synced > sync_metadata.last_synced
	`, mark.SyncType, mark.LastSynced.UTC())
	if err != nil {
		return fmt.Errorf("saving watermark: %w", err)
	}
	return nil
}
