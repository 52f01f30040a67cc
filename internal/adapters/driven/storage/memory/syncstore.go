package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// Ensure the interfaces are implemented.
var (
	_ driven.WatermarkStore = (*WatermarkStore)(nil)
	_ driven.SyncLogStore   = (*SyncLogStore)(nil)
)

// WatermarkStore is an in-memory implementation of driven.WatermarkStore.
type WatermarkStore struct {
	mu    sync.RWMutex
	marks map[string]domain.Watermark
}

// NewWatermarkStore creates a new in-memory watermark store.
func NewWatermarkStore() *WatermarkStore {
	return &WatermarkStore{
		marks: make(map[string]domain.Watermark),
	}
}

// Get retrieves the watermark for a sync type.
func (s *WatermarkStore) Get(_ context.Context, syncType string) (*domain.Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mark, ok := s.marks[syncType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &mark, nil
}

// Save stores the watermark, ignoring backward moves.
func (s *WatermarkStore) Save(_ context.Context, mark domain.Watermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.marks[mark.SyncType]; ok && !mark.LastSynced.After(existing.LastSynced) {
		return nil
	}
	s.marks[mark.SyncType] = mark
	return nil
}

// SyncLogStore is an in-memory implementation of driven.SyncLogStore.
type SyncLogStore struct {
	mu   sync.RWMutex
	runs []domain.SyncRun
}

// NewSyncLogStore creates a new in-memory sync log store.
func NewSyncLogStore() *SyncLogStore {
	return &SyncLogStore{}
}

// Append inserts one run record.
func (s *SyncLogStore) Append(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	s.runs = append(s.runs, run)
	return nil
}

// Recent returns runs completed after since, newest first.
func (s *SyncLogStore) Recent(_ context.Context, since time.Time) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []domain.SyncRun
	for _, run := range s.runs {
		if run.CompletedAt.After(since) {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CompletedAt.After(runs[j].CompletedAt)
	})
	return runs, nil
}
