// Package cli implements the command-line interface, the driving
// adapter through which operators run syncs, health checks and repair
// jobs.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/liveport/crmsync/internal/adapters/driven/chatwoot"
	"github.com/liveport/crmsync/internal/adapters/driven/notify/googlechat"
	"github.com/liveport/crmsync/internal/adapters/driven/pipedrive"
	"github.com/liveport/crmsync/internal/adapters/driven/storage/sqlite"
	"github.com/liveport/crmsync/internal/config"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/core/ports/driving"
	"github.com/liveport/crmsync/internal/core/services"
	"github.com/liveport/crmsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands run against. Wired lazily by ensureServices;
// tests inject their own implementations.
var (
	pipeline      driving.Pipeline
	healthChecker driving.HealthChecker
	maintainer    driving.Maintainer
	notifier      driven.Notifier

	store *sqlite.Store
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "crmsync",
	Short: "Sync Pipedrive customer organisations into Chatwoot",
	Long: `crmsync mirrors customer organisations from Pipedrive into a local
database and pushes them to Chatwoot as contacts, so support agents see
customer details alongside conversations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and releases the store afterwards.
func Execute() error {
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()
	return rootCmd.Execute()
}

// ensureServices wires the full service graph from configuration. A
// no-op when the services are already set, so tests can preset mocks.
func ensureServices() error {
	if pipeline != nil && healthChecker != nil && maintainer != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	store = st

	crm := pipedrive.NewClient(pipedrive.Config{
		BaseURL:          cfg.Pipedrive.BaseURL,
		APIToken:         cfg.Pipedrive.APIToken,
		CustomerLabelID:  cfg.Pipedrive.CustomerLabelID,
		CustomerFilterID: cfg.Pipedrive.CustomerFilterID,
		PhoneFieldKey:    cfg.Pipedrive.PhoneFieldKey,
		CountryCode:      cfg.Pipedrive.CountryCode,
	})
	desk := chatwoot.NewClient(chatwoot.Config{
		BaseURL:  cfg.Chatwoot.BaseURL,
		APIToken: cfg.Chatwoot.APIToken,
	})
	notifier = googlechat.New(cfg.Alerts.WebhookURL)

	batchSize := cfg.Sync.BatchSize
	if syncBatchSize > 0 {
		batchSize = syncBatchSize
	}

	orgs := store.OrganizationStore()
	fetcher := services.NewFetcher(crm, cfg.Pipedrive.CustomerLabelID, 0)
	reconciler := services.NewReconciler(orgs, store.WatermarkStore(), batchSize)
	syncer := services.NewSyncer(desk, orgs, cfg.Chatwoot.InboxID, cfg.Chatwoot.InboxNameHint, batchSize)

	pipeline = services.NewPipelineService(
		fetcher, reconciler, syncer,
		store.SyncLogStore(), notifier,
		cfg.Alerts.ErrorRateThreshold,
	)
	healthChecker = services.NewHealthService(
		crm, desk, orgs, store.SyncLogStore(),
		time.Duration(cfg.Sync.MaxSyncAgeHours)*time.Hour,
		cfg.Alerts.ErrorRateThreshold,
	)
	maintainer = services.NewMaintenanceService(desk, orgs, syncer)
	return nil
}
