package driven

import (
	"context"

	"github.com/liveport/crmsync/internal/core/domain"
)

// Notifier delivers alerts to the external notification collaborator.
// Delivery is fire-and-forget: callers log returned errors and move on.
type Notifier interface {
	Notify(ctx context.Context, alert domain.Alert) error
}
