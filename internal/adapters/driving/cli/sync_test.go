package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveport/crmsync/internal/core/domain"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync", syncCmd.Use)
}

func TestSyncCmd_FullRunByDefault(t *testing.T) {
	p, _, _, _, cleanup := setupCLITest()
	defer cleanup()

	out, err := execute("sync")
	require.NoError(t, err)

	require.Len(t, p.opts, 1)
	assert.False(t, p.opts[0].Incremental)
	assert.False(t, p.opts[0].DryRun)
	assert.Contains(t, out, "Starting full sync...")
	assert.Contains(t, out, "Status:    success")
	assert.Contains(t, out, "Processed: 12")
	assert.Contains(t, out, "Duration:  3s")
}

func TestSyncCmd_IncrementalDryRun(t *testing.T) {
	p, _, _, _, cleanup := setupCLITest()
	defer cleanup()

	out, err := execute("sync", "--incremental", "--dry-run")
	require.NoError(t, err)

	require.Len(t, p.opts, 1)
	assert.True(t, p.opts[0].Incremental)
	assert.True(t, p.opts[0].DryRun)
	assert.Contains(t, out, "Starting incremental sync (dry run)...")
}

func TestSyncCmd_PrintsRunOnFailure(t *testing.T) {
	p, _, _, _, cleanup := setupCLITest()
	defer cleanup()

	run := successRun()
	run.Status = domain.RunError
	run.RecordsSynced = 0
	run.ErrorMessage = "CRM down"
	p.run = run
	p.err = errors.New("fetch: CRM down")

	out, err := execute("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
	assert.Contains(t, out, "Status:    error")
	assert.Contains(t, out, "Errors:    CRM down")
}

func TestSyncCmd_AlreadyRunning(t *testing.T) {
	p, _, _, _, cleanup := setupCLITest()
	defer cleanup()

	p.run = nil
	p.err = domain.ErrSyncInProgress

	_, err := execute("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another sync is already running")
}
