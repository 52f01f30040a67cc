// Package memory provides in-memory implementations of the storage
// driven ports, used by tests and as a reference implementation of the
// port contracts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// Ensure OrganizationStore implements the interface.
var _ driven.OrganizationStore = (*OrganizationStore)(nil)

// OrganizationStore is an in-memory implementation of
// driven.OrganizationStore.
type OrganizationStore struct {
	mu   sync.RWMutex
	rows map[int64]domain.Organization
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		rows: make(map[int64]domain.Organization),
	}
}

// ReplaceAll clears the mirror and inserts all records with synced=0.
func (s *OrganizationStore) ReplaceAll(_ context.Context, orgs []domain.Organization, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = make(map[int64]domain.Organization, len(orgs))
	now := time.Now().UTC()
	for _, org := range orgs {
		org.Synced = false
		org.RemoteContactID = nil
		org.UpdatedAt = now
		s.rows[org.CRMOrgID] = org
	}
	return nil
}

// Upsert inserts or updates records, preserving sync state of existing rows.
func (s *OrganizationStore) Upsert(_ context.Context, orgs []domain.Organization, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, org := range orgs {
		if existing, ok := s.rows[org.CRMOrgID]; ok {
			org.Synced = existing.Synced
			org.RemoteContactID = existing.RemoteContactID
		} else {
			org.Synced = false
			org.RemoteContactID = nil
		}
		org.UpdatedAt = now
		s.rows[org.CRMOrgID] = org
	}
	return nil
}

// ListUnsynced returns unsynced records in name order.
func (s *OrganizationStore) ListUnsynced(_ context.Context) ([]domain.Organization, error) {
	return s.list(false), nil
}

// ListSynced returns synced records in name order.
func (s *OrganizationStore) ListSynced(_ context.Context) ([]domain.Organization, error) {
	return s.list(true), nil
}

func (s *OrganizationStore) list(synced bool) []domain.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orgs []domain.Organization
	for _, org := range s.rows {
		if org.Synced == synced {
			orgs = append(orgs, org)
		}
	}
	sort.Slice(orgs, func(i, j int) bool {
		if orgs[i].Name != orgs[j].Name {
			return orgs[i].Name < orgs[j].Name
		}
		return orgs[i].CRMOrgID < orgs[j].CRMOrgID
	})
	return orgs
}

// MarkSynced applies synced-flag updates.
func (s *OrganizationStore) MarkSynced(_ context.Context, updates []driven.SyncedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, u := range updates {
		org, ok := s.rows[u.CRMOrgID]
		if !ok {
			continue
		}
		id := u.RemoteContactID
		org.Synced = true
		org.RemoteContactID = &id
		org.UpdatedAt = now
		s.rows[u.CRMOrgID] = org
	}
	return nil
}

// Counts returns (total, synced) row counts.
func (s *OrganizationStore) Counts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	synced := 0
	for _, org := range s.rows {
		if org.Synced {
			synced++
		}
	}
	return len(s.rows), synced, nil
}

// CountStaleUnsynced counts unsynced records older than cutoff.
func (s *OrganizationStore) CountStaleUnsynced(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, org := range s.rows {
		if !org.Synced && org.UpdatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}
