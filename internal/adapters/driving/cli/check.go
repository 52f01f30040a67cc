package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driving"
	"github.com/liveport/crmsync/internal/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the health of the sync setup",
	Long: `Probes the Pipedrive and Chatwoot APIs, inspects the local mirror
for stale records and failed runs, and compares record counts across
the three systems. Exits non-zero when any check fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if healthChecker == nil {
		return errors.New("health checker not configured")
	}

	report, err := healthChecker.Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	for _, check := range report.Checks {
		marker := "OK  "
		if !check.Healthy {
			marker = "FAIL"
		}
		cmd.Printf("[%s] %-18s %s\n", marker, check.Name, check.Detail)
		for _, issue := range check.Issues {
			cmd.Printf("       - %s\n", issue)
		}
	}

	if report.Healthy {
		cmd.Println("All checks passed.")
		return nil
	}

	alertUnhealthy(cmd.Context(), report)
	return errors.New("one or more health checks failed")
}

// alertUnhealthy notifies the operators channel about failed checks.
func alertUnhealthy(ctx context.Context, report *driving.HealthReport) {
	if notifier == nil {
		return
	}

	details := make(map[string]any)
	failed := 0
	for _, check := range report.Checks {
		if check.Healthy {
			continue
		}
		failed++
		detail := check.Detail
		for _, issue := range check.Issues {
			detail += "; " + issue
		}
		details[check.Name] = detail
	}

	alert := domain.Alert{
		Script:   "check",
		Category: "Health Check Failed",
		Message:  fmt.Sprintf("%d of %d health checks failed", failed, len(report.Checks)),
		Details:  details,
		Level:    domain.AlertWarning,
	}
	if err := notifier.Notify(ctx, alert); err != nil {
		logger.Warn("Could not deliver health alert: %s", err)
	}
}
