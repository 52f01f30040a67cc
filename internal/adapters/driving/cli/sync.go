package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driving"
)

var (
	syncIncremental bool
	syncDryRun      bool
	syncBatchSize   int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync customer organisations from Pipedrive to Chatwoot",
	Long: `Fetches customer organisations from Pipedrive, reconciles the local
mirror and pushes unsynced records to Chatwoot.

By default every customer organisation is fetched and the mirror is
rebuilt. With --incremental only organisations changed since the last
run are fetched and merged in.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncIncremental, "incremental", false, "fetch only organisations changed since the last run")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "preview the sync without writing anything")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "records per database batch (0 uses the configured size)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if pipeline == nil {
		return errors.New("sync pipeline not configured")
	}

	mode := "full"
	if syncIncremental {
		mode = "incremental"
	}
	if syncDryRun {
		cmd.Printf("Starting %s sync (dry run)...\n", mode)
	} else {
		cmd.Printf("Starting %s sync...\n", mode)
	}

	run, err := pipeline.Run(cmd.Context(), driving.RunOptions{
		Incremental: syncIncremental,
		DryRun:      syncDryRun,
	})
	if errors.Is(err, domain.ErrSyncInProgress) {
		return errors.New("another sync is already running")
	}
	if run != nil {
		printRun(cmd, run)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func printRun(cmd *cobra.Command, run *domain.SyncRun) {
	cmd.Printf("Status:    %s\n", run.Status)
	cmd.Printf("Processed: %d\n", run.RecordsProcessed)
	cmd.Printf("Synced:    %d\n", run.RecordsSynced)
	cmd.Printf("Duration:  %s\n", run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	if run.ErrorMessage != "" {
		cmd.Printf("Errors:    %s\n", run.ErrorMessage)
	}
}
