package services

import (
	"context"
	"fmt"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthChecker = (*HealthService)(nil)

// recentRunWindow bounds the run-log lookback of the sync status check.
const recentRunWindow = 24 * time.Hour

// HealthService probes both APIs, the local mirror and the consistency
// between them.
type HealthService struct {
	crm    driven.CRM
	desk   driven.SupportDesk
	orgs   driven.OrganizationStore
	runLog driven.SyncLogStore

	// maxSyncAge is how long a record may stay unsynced before it
	// counts as stale.
	maxSyncAge time.Duration

	// errorRateThreshold flags runs whose failure rate exceeds it.
	errorRateThreshold float64
}

// NewHealthService creates a health checker.
func NewHealthService(
	crm driven.CRM,
	desk driven.SupportDesk,
	orgs driven.OrganizationStore,
	runLog driven.SyncLogStore,
	maxSyncAge time.Duration,
	errorRateThreshold float64,
) *HealthService {
	return &HealthService{
		crm:                crm,
		desk:               desk,
		orgs:               orgs,
		runLog:             runLog,
		maxSyncAge:         maxSyncAge,
		errorRateThreshold: errorRateThreshold,
	}
}

// Check runs every probe and aggregates the report. Individual probe
// failures mark the report unhealthy but never abort the others.
func (h *HealthService) Check(ctx context.Context) (*driving.HealthReport, error) {
	crmCheck, crmCount := h.checkCRM(ctx)
	deskCheck, deskCount := h.checkSupportDesk(ctx)
	mirrorCheck, total, synced := h.checkMirror(ctx)

	report := &driving.HealthReport{
		Checks: []driving.HealthCheck{
			crmCheck,
			deskCheck,
			mirrorCheck,
			h.checkConsistency(crmCheck.Healthy, crmCount, deskCount, total, synced),
		},
	}

	report.Healthy = true
	for _, check := range report.Checks {
		if !check.Healthy {
			report.Healthy = false
			break
		}
	}
	return report, nil
}

// checkCRM probes the CRM API and returns the upstream organization
// count for the consistency check.
func (h *HealthService) checkCRM(ctx context.Context) (driving.HealthCheck, int) {
	check := driving.HealthCheck{Name: "crm_api"}

	count, err := h.crm.CountOrganizations(ctx)
	if err != nil {
		check.Detail = fmt.Sprintf("unreachable: %v", err)
		return check, 0
	}
	check.Healthy = true
	check.Detail = fmt.Sprintf("%d organizations upstream", count)
	return check, count
}

// checkSupportDesk validates credentials and probes the contact count.
func (h *HealthService) checkSupportDesk(ctx context.Context) (driving.HealthCheck, int) {
	check := driving.HealthCheck{Name: "support_desk_api"}

	if err := h.desk.ValidateToken(ctx); err != nil {
		check.Detail = fmt.Sprintf("token rejected: %v", err)
		return check, 0
	}
	count, err := h.desk.CountContacts(ctx)
	if err != nil {
		check.Detail = fmt.Sprintf("unreachable: %v", err)
		return check, 0
	}
	check.Healthy = true
	check.Detail = fmt.Sprintf("%d contacts", count)
	return check, count
}

// checkMirror inspects the local mirror: stale unsynced records and the
// failure rate of recent runs.
func (h *HealthService) checkMirror(ctx context.Context) (driving.HealthCheck, int, int) {
	check := driving.HealthCheck{Name: "local_mirror"}

	total, synced, err := h.orgs.Counts(ctx)
	if err != nil {
		check.Detail = fmt.Sprintf("unreadable: %v", err)
		return check, 0, 0
	}
	check.Detail = fmt.Sprintf("%d records, %d synced", total, synced)

	cutoff := time.Now().Add(-h.maxSyncAge)
	stale, err := h.orgs.CountStaleUnsynced(ctx, cutoff)
	if err != nil {
		check.Detail = fmt.Sprintf("unreadable: %v", err)
		return check, total, synced
	}
	if stale > 0 {
		check.Issues = append(check.Issues,
			fmt.Sprintf("%d organizations unsynced for over %s", stale, h.maxSyncAge))
	}

	runs, err := h.runLog.Recent(ctx, time.Now().Add(-recentRunWindow))
	if err != nil {
		check.Detail = fmt.Sprintf("run log unreadable: %v", err)
		return check, total, synced
	}
	failed := 0
	for _, run := range runs {
		if run.Status == domain.RunError {
			failed++
		}
	}
	if len(runs) > 0 {
		rate := float64(failed) / float64(len(runs)) * 100
		if rate > h.errorRateThreshold {
			check.Issues = append(check.Issues,
				fmt.Sprintf("high error rate: %.1f%% of runs failed in the last 24 hours", rate))
		}
	}

	check.Healthy = len(check.Issues) == 0
	return check, total, synced
}

// checkConsistency compares the upstream, mirror and remote counts.
// Mirrors the tolerances of the original monitoring: a mirror drift
// beyond max(10, 10%) of upstream, or a sync rate under 90%, is an issue.
func (h *HealthService) checkConsistency(crmHealthy bool, crmCount, deskCount, total, synced int) driving.HealthCheck {
	check := driving.HealthCheck{Name: "data_consistency"}

	if !crmHealthy {
		check.Detail = "skipped: CRM API unavailable"
		return check
	}
	check.Detail = fmt.Sprintf("upstream=%d mirror=%d mirror_synced=%d remote_contacts=%d",
		crmCount, total, synced, deskCount)

	drift := crmCount - total
	if drift < 0 {
		drift = -drift
	}
	tolerance := crmCount / 10
	if tolerance < 10 {
		tolerance = 10
	}
	if drift > tolerance {
		check.Issues = append(check.Issues,
			fmt.Sprintf("large discrepancy: upstream has %d customer organizations, mirror has %d", crmCount, total))
	}

	if total > 0 {
		rate := float64(synced) / float64(total) * 100
		if rate < 90 {
			check.Issues = append(check.Issues,
				fmt.Sprintf("low sync rate: only %.1f%% of mirror records synced", rate))
		}
	}

	check.Healthy = len(check.Issues) == 0
	return check
}
