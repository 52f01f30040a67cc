package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/retry"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "crmsync-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// testOrg builds a mirror record with predictable fields.
func testOrg(id int64, name string) domain.Organization {
	return domain.Organization{
		CRMOrgID:    id,
		Name:        name,
		Phone:       fmt.Sprintf("+6140000%04d", id),
		City:        "Sydney",
		Country:     "Australia",
		Status:      domain.StatusCustomer,
		SupportLink: "https://support.example.com",
		Raw:         []byte(fmt.Sprintf(`{"id":%d,"name":%q}`, id, name)),
	}
}

func TestNewStore(t *testing.T) {
	t.Run("creates database and runs migrations", func(t *testing.T) {
		store, cleanup := setupTestStore(t)
		defer cleanup()

		assert.FileExists(t, store.Path())

		// Migrations are idempotent across reopen.
		total, synced, err := store.OrganizationStore().Counts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Equal(t, 0, synced)
	})

	t.Run("unopenable database exhausts the store retry budget", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "crmsync-test-*")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)

		// A directory where the database file should be makes every
		// open attempt fail.
		require.NoError(t, os.Mkdir(filepath.Join(tempDir, "crmsync.db"), 0700))

		_, err = NewStore(tempDir)
		var exhausted *retry.ExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, "open local store", exhausted.Operation)
	})

	t.Run("reopening an existing database keeps data", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "crmsync-test-*")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)

		store, err := NewStore(tempDir)
		require.NoError(t, err)
		ctx := context.Background()
		require.NoError(t, store.OrganizationStore().ReplaceAll(ctx, []domain.Organization{testOrg(1, "Acme")}, 50))
		require.NoError(t, store.Close())

		store, err = NewStore(tempDir)
		require.NoError(t, err)
		defer store.Close()

		total, _, err := store.OrganizationStore().Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestOrganizationStore_ReplaceAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	orgs := store.OrganizationStore()

	t.Run("inserts all records unsynced", func(t *testing.T) {
		records := make([]domain.Organization, 0, 120)
		for i := int64(1); i <= 120; i++ {
			records = append(records, testOrg(i, fmt.Sprintf("Org %03d", i)))
		}

		// Batch size smaller than the set forces multiple commits.
		require.NoError(t, orgs.ReplaceAll(ctx, records, 50))

		total, synced, err := orgs.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 120, total)
		assert.Equal(t, 0, synced)
	})

	t.Run("clears previous contents including synced flags", func(t *testing.T) {
		require.NoError(t, orgs.MarkSynced(ctx, []driven.SyncedUpdate{{CRMOrgID: 1, RemoteContactID: 900}}))

		require.NoError(t, orgs.ReplaceAll(ctx, []domain.Organization{testOrg(1, "Acme")}, 50))

		total, synced, err := orgs.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, 0, synced)

		unsynced, err := orgs.ListUnsynced(ctx)
		require.NoError(t, err)
		require.Len(t, unsynced, 1)
		assert.Nil(t, unsynced[0].RemoteContactID)
	})
}

func TestOrganizationStore_Upsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	orgs := store.OrganizationStore()

	require.NoError(t, orgs.ReplaceAll(ctx, []domain.Organization{
		testOrg(1, "Acme"),
		testOrg(2, "Beta"),
	}, 50))
	require.NoError(t, orgs.MarkSynced(ctx, []driven.SyncedUpdate{{CRMOrgID: 1, RemoteContactID: 900}}))

	t.Run("updates existing rows preserving sync state", func(t *testing.T) {
		changed := testOrg(1, "Acme Renamed")
		require.NoError(t, orgs.Upsert(ctx, []domain.Organization{changed}, 50))

		synced, err := orgs.ListSynced(ctx)
		require.NoError(t, err)
		require.Len(t, synced, 1)
		assert.Equal(t, "Acme Renamed", synced[0].Name)
		assert.True(t, synced[0].Synced)
		require.NotNil(t, synced[0].RemoteContactID)
		assert.Equal(t, int64(900), *synced[0].RemoteContactID)
	})

	t.Run("inserts new rows unsynced", func(t *testing.T) {
		require.NoError(t, orgs.Upsert(ctx, []domain.Organization{testOrg(3, "Gamma")}, 50))

		total, synced, err := orgs.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, 1, synced)
	})
}

func TestOrganizationStore_Listing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	orgs := store.OrganizationStore()

	require.NoError(t, orgs.ReplaceAll(ctx, []domain.Organization{
		testOrg(3, "Charlie"),
		testOrg(1, "Alpha"),
		testOrg(2, "Bravo"),
	}, 50))

	t.Run("unsynced records come back in name order", func(t *testing.T) {
		unsynced, err := orgs.ListUnsynced(ctx)
		require.NoError(t, err)
		require.Len(t, unsynced, 3)
		assert.Equal(t, "Alpha", unsynced[0].Name)
		assert.Equal(t, "Bravo", unsynced[1].Name)
		assert.Equal(t, "Charlie", unsynced[2].Name)
		assert.NotEmpty(t, unsynced[0].Raw)
	})

	t.Run("marking synced moves records between lists", func(t *testing.T) {
		require.NoError(t, orgs.MarkSynced(ctx, []driven.SyncedUpdate{
			{CRMOrgID: 1, RemoteContactID: 901},
			{CRMOrgID: 2, RemoteContactID: 902},
		}))

		unsynced, err := orgs.ListUnsynced(ctx)
		require.NoError(t, err)
		require.Len(t, unsynced, 1)
		assert.Equal(t, "Charlie", unsynced[0].Name)

		synced, err := orgs.ListSynced(ctx)
		require.NoError(t, err)
		require.Len(t, synced, 2)
		assert.True(t, synced[0].Synced)
	})

	t.Run("empty update set is a no-op", func(t *testing.T) {
		require.NoError(t, orgs.MarkSynced(ctx, nil))
	})
}

func TestOrganizationStore_CountStaleUnsynced(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	orgs := store.OrganizationStore()

	require.NoError(t, orgs.ReplaceAll(ctx, []domain.Organization{testOrg(1, "Acme")}, 50))

	stale, err := orgs.CountStaleUnsynced(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, stale)

	stale, err = orgs.CountStaleUnsynced(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stale)
}

func TestWatermarkStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	marks := store.WatermarkStore()

	t.Run("absent watermark returns not found", func(t *testing.T) {
		_, err := marks.Get(ctx, domain.SyncTypeOrganizations)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save and read back", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, marks.Save(ctx, domain.Watermark{
			SyncType:   domain.SyncTypeOrganizations,
			LastSynced: at,
		}))

		mark, err := marks.Get(ctx, domain.SyncTypeOrganizations)
		require.NoError(t, err)
		assert.True(t, mark.LastSynced.Equal(at))
	})

	t.Run("never moves backward", func(t *testing.T) {
		earlier := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, marks.Save(ctx, domain.Watermark{
			SyncType:   domain.SyncTypeOrganizations,
			LastSynced: earlier,
		}))

		mark, err := marks.Get(ctx, domain.SyncTypeOrganizations)
		require.NoError(t, err)
		assert.True(t, mark.LastSynced.After(earlier))
	})

	t.Run("moves forward", func(t *testing.T) {
		later := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, marks.Save(ctx, domain.Watermark{
			SyncType:   domain.SyncTypeOrganizations,
			LastSynced: later,
		}))

		mark, err := marks.Get(ctx, domain.SyncTypeOrganizations)
		require.NoError(t, err)
		assert.True(t, mark.LastSynced.Equal(later))
	})
}

func TestSyncLogStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	log := store.SyncLogStore()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := domain.SyncRun{
			SyncType:         domain.SyncTypeOrganizations,
			Status:           domain.RunSuccess,
			RecordsProcessed: 30,
			RecordsSynced:    30,
			StartedAt:        base.Add(time.Duration(i) * time.Hour),
			CompletedAt:      base.Add(time.Duration(i)*time.Hour + time.Minute),
		}
		require.NoError(t, log.Append(ctx, run))
	}

	t.Run("recent returns newest first", func(t *testing.T) {
		runs, err := log.Recent(ctx, base.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.True(t, runs[0].CompletedAt.After(runs[1].CompletedAt))
		assert.NotEmpty(t, runs[0].ID)
	})

	t.Run("since filter excludes older runs", func(t *testing.T) {
		runs, err := log.Recent(ctx, base.Add(90*time.Minute))
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("partial runs round-trip status and message", func(t *testing.T) {
		run := domain.SyncRun{
			SyncType:         domain.SyncTypeOrganizations,
			Status:           domain.RunPartial,
			RecordsProcessed: 30,
			RecordsSynced:    27,
			ErrorMessage:     "3 records failed",
			StartedAt:        base.Add(24 * time.Hour),
			CompletedAt:      base.Add(24*time.Hour + time.Minute),
		}
		require.NoError(t, log.Append(ctx, run))

		runs, err := log.Recent(ctx, base.Add(23*time.Hour))
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunPartial, runs[0].Status)
		assert.Equal(t, "3 records failed", runs[0].ErrorMessage)
		assert.InDelta(t, 10.0, runs[0].ErrorRate(), 0.01)
	})
}
