package driving

import "context"

// Maintainer covers the occasional repair jobs on the support desk.
type Maintainer interface {
	// BackfillLabels attaches the customer label to synced contacts
	// missing it. Returns (checked, added) counts.
	BackfillLabels(ctx context.Context) (int, int, error)

	// ReassignInboxes re-runs inbox assignment for every synced
	// contact and returns the number assigned.
	ReassignInboxes(ctx context.Context) (int, error)

	// Clean deletes every contact from the support desk and returns
	// the number deleted. Destructive; callers must confirm first.
	Clean(ctx context.Context) (int, error)
}
