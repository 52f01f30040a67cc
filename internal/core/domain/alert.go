package domain

// AlertLevel grades alert severity.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "INFO"
	AlertWarning AlertLevel = "WARNING"
	AlertError   AlertLevel = "ERROR"
)

// Alert is a structured notification sent to the external notification
// collaborator. Delivery is fire-and-forget: failures are swallowed.
type Alert struct {
	// Script names the command that raised the alert (sync/check/clean).
	Script string

	// Category classifies the condition (high error rate, API failure).
	Category string

	// Message is the human-readable summary.
	Message string

	// Details carries free-form key/value context.
	Details map[string]any

	// Level is the severity.
	Level AlertLevel
}
