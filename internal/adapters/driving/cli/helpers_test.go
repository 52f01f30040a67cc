package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driving"
)

// mockPipeline implements driving.Pipeline for testing.
type mockPipeline struct {
	run  *domain.SyncRun
	err  error
	opts []driving.RunOptions
}

func (m *mockPipeline) Run(_ context.Context, opts driving.RunOptions) (*domain.SyncRun, error) {
	m.opts = append(m.opts, opts)
	return m.run, m.err
}

// mockHealthChecker implements driving.HealthChecker for testing.
type mockHealthChecker struct {
	report *driving.HealthReport
	err    error
}

func (m *mockHealthChecker) Check(context.Context) (*driving.HealthReport, error) {
	return m.report, m.err
}

// mockMaintainer implements driving.Maintainer for testing.
type mockMaintainer struct {
	checked, added int
	assigned       int
	deleted        int
	err            error
}

func (m *mockMaintainer) BackfillLabels(context.Context) (int, int, error) {
	return m.checked, m.added, m.err
}

func (m *mockMaintainer) ReassignInboxes(context.Context) (int, error) {
	return m.assigned, m.err
}

func (m *mockMaintainer) Clean(context.Context) (int, error) {
	return m.deleted, m.err
}

// mockNotifier implements driven.Notifier, recording alerts.
type mockNotifier struct {
	alerts []domain.Alert
}

func (m *mockNotifier) Notify(_ context.Context, alert domain.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

// setupCLITest swaps all service vars for mocks and returns the mocks
// plus a cleanup restoring the originals and resetting flags.
func setupCLITest() (*mockPipeline, *mockHealthChecker, *mockMaintainer, *mockNotifier, func()) {
	oldPipeline := pipeline
	oldHealth := healthChecker
	oldMaintainer := maintainer
	oldNotifier := notifier

	p := &mockPipeline{run: successRun()}
	h := &mockHealthChecker{report: &driving.HealthReport{Healthy: true}}
	m := &mockMaintainer{}
	n := &mockNotifier{}
	pipeline, healthChecker, maintainer, notifier = p, h, m, n

	return p, h, m, n, func() {
		pipeline = oldPipeline
		healthChecker = oldHealth
		maintainer = oldMaintainer
		notifier = oldNotifier
		syncIncremental = false
		syncDryRun = false
		syncBatchSize = 0
		cleanConfirm = false
		rootCmd.SetArgs(nil)
	}
}

func successRun() *domain.SyncRun {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.SyncRun{
		ID:               "run-1",
		SyncType:         domain.SyncTypeOrganizations,
		Status:           domain.RunSuccess,
		RecordsProcessed: 12,
		RecordsSynced:    12,
		StartedAt:        started,
		CompletedAt:      started.Add(3 * time.Second),
	}
}

// execute runs the root command with args, capturing output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
