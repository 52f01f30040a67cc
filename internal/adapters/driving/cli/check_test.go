package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driving"
)

func TestCheckCmd_Use(t *testing.T) {
	assert.Equal(t, "check", checkCmd.Use)
}

func TestCheckCmd_AllHealthy(t *testing.T) {
	_, h, _, n, cleanup := setupCLITest()
	defer cleanup()

	h.report = &driving.HealthReport{
		Healthy: true,
		Checks: []driving.HealthCheck{
			{Name: "crm_api", Healthy: true, Detail: "342 organizations upstream"},
			{Name: "support_desk_api", Healthy: true, Detail: "340 contacts"},
		},
	}

	out, err := execute("check")
	require.NoError(t, err)
	assert.Contains(t, out, "[OK  ] crm_api")
	assert.Contains(t, out, "342 organizations upstream")
	assert.Contains(t, out, "All checks passed.")
	assert.Empty(t, n.alerts)
}

func TestCheckCmd_UnhealthyFailsAndAlerts(t *testing.T) {
	_, h, _, n, cleanup := setupCLITest()
	defer cleanup()

	h.report = &driving.HealthReport{
		Healthy: false,
		Checks: []driving.HealthCheck{
			{Name: "crm_api", Healthy: true, Detail: "342 organizations upstream"},
			{
				Name:   "local_mirror",
				Detail: "342 records, 200 synced",
				Issues: []string{"142 organizations unsynced for over 24h0m0s"},
			},
		},
	}

	out, err := execute("check")
	require.Error(t, err)
	assert.Contains(t, out, "[FAIL] local_mirror")
	assert.Contains(t, out, "- 142 organizations unsynced")

	require.Len(t, n.alerts, 1)
	alert := n.alerts[0]
	assert.Equal(t, "check", alert.Script)
	assert.Equal(t, "Health Check Failed", alert.Category)
	assert.Equal(t, domain.AlertWarning, alert.Level)
	assert.Contains(t, alert.Message, "1 of 2 health checks failed")
	assert.Contains(t, alert.Details["local_mirror"], "142 organizations unsynced")
}
