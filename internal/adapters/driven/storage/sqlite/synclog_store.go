package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// syncLogStore implements driven.SyncLogStore.
type syncLogStore struct {
	store *Store
}

var _ driven.SyncLogStore = (*syncLogStore)(nil)

// Append inserts one run record. A missing id is generated here so
// callers can leave it blank.
func (s *syncLogStore) Append(ctx context.Context, run domain.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_log (id, sync_type, status, records_processed,
			records_synced, error_message, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SyncType, string(run.Status), run.RecordsProcessed,
		run.RecordsSynced, run.ErrorMessage,
		run.StartedAt.UTC(), run.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("appending sync run: %w", err)
	}
	return nil
}

// Recent returns runs completed after since, newest first.
func (s *syncLogStore) Recent(ctx context.Context, since time.Time) ([]domain.SyncRun, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, sync_type, status, records_processed, records_synced,
			error_message, started_at, completed_at
		FROM sync_log
		WHERE completed_at > ?
		ORDER BY completed_at DESC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		var (
			run    domain.SyncRun
			status string
		)
		if err := rows.Scan(&run.ID, &run.SyncType, &status,
			&run.RecordsProcessed, &run.RecordsSynced, &run.ErrorMessage,
			&run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
