package driven

import (
	"context"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
)

// OrganizationPage is one page of CRM organizations plus the cursor for
// the next request.
type OrganizationPage struct {
	// Organizations are the raw records on this page, unfiltered.
	Organizations []domain.CRMOrganization

	// HasMore reports whether further pages exist.
	HasMore bool

	// NextStart is the API-supplied cursor for the next page. Callers
	// fall back to start+limit when the API omits it (-1).
	NextStart int
}

// ListOptions constrain an organization page request.
type ListOptions struct {
	// Start is the pagination cursor.
	Start int

	// Limit is the page size.
	Limit int

	// Since restricts the page to records changed after this instant.
	// Zero means no restriction (full fetch).
	Since time.Time
}

// CRM is the upstream system owning organization and person records
// (Pipedrive). Implementations handle pagination mechanics, retries and
// pacing internally; one call returns one page.
type CRM interface {
	// ListOrganizations fetches a single page of organizations.
	ListOrganizations(ctx context.Context, opts ListOptions) (*OrganizationPage, error)

	// ResolvePhones resolves phone numbers for the given organizations
	// via the custom-field and persons fallback chain, returning a map
	// keyed by organization id. Missing entries mean no phone found.
	ResolvePhones(ctx context.Context, orgs []domain.CRMOrganization) (map[int64]string, error)

	// CountOrganizations returns the upstream total for the customer
	// classification, used by health checks.
	CountOrganizations(ctx context.Context) (int, error)
}
