package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/logger"
)

// Compile-time check that Client satisfies the CRM port.
var _ driven.CRM = (*Client)(nil)

// ListOrganizations fetches a single page of organizations. Records are
// returned unfiltered; label filtering happens in the fetch service so
// pagination cursors stay aligned with the API.
func (c *Client) ListOrganizations(ctx context.Context, opts driven.ListOptions) (*driven.OrganizationPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = c.cfg.PageLimit
	}
	params := url.Values{}
	params.Set("start", strconv.Itoa(opts.Start))
	params.Set("limit", strconv.Itoa(limit))
	if !opts.Since.IsZero() {
		params.Set("since_timestamp", opts.Since.UTC().Format(sinceLayout))
	}

	env, err := c.get(ctx, "list organizations", "/organizations", params)
	if err != nil {
		return nil, err
	}

	var rawOrgs []json.RawMessage
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &rawOrgs); err != nil {
			return nil, fmt.Errorf("%w: organizations data is not an array", ErrMalformedResponse)
		}
	}

	page := &driven.OrganizationPage{
		Organizations: make([]domain.CRMOrganization, 0, len(rawOrgs)),
		HasMore:       env.AdditionalData.Pagination.MoreItemsInCollection,
		NextStart:     env.AdditionalData.Pagination.NextStart,
	}
	if !page.HasMore {
		page.NextStart = -1
	}
	for _, raw := range rawOrgs {
		org, err := parseOrganization(raw)
		if err != nil {
			// One bad record must not sink the page.
			logger.Warn("Skipping malformed organization record at start=%d: %s", opts.Start, err)
			continue
		}
		page.Organizations = append(page.Organizations, org)
	}
	return page, nil
}

// CountOrganizations returns the upstream customer-organization total
// reported by the pagination summary of a single-record page, constrained
// by the customer filter so it is comparable with the local mirror.
func (c *Client) CountOrganizations(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("start", "0")
	params.Set("limit", "1")
	params.Set("get_summary", "1")
	if c.cfg.CustomerFilterID > 0 {
		params.Set("filter_id", strconv.FormatInt(c.cfg.CustomerFilterID, 10))
	}

	env, err := c.get(ctx, "count organizations", "/organizations", params)
	if err != nil {
		return 0, err
	}
	return env.AdditionalData.Pagination.TotalCount, nil
}

// parseOrganization maps a raw API payload onto a CRMOrganization,
// keeping the full field map for custom-field scans downstream.
func parseOrganization(raw json.RawMessage) (domain.CRMOrganization, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.CRMOrganization{}, fmt.Errorf("%w: organization record is not an object", ErrMalformedResponse)
	}

	org := domain.CRMOrganization{
		ID:        intField(fields, "id"),
		Name:      stringField(fields, "name"),
		Label:     intField(fields, "label"),
		Phone:     stringField(fields, "phone"),
		Email:     stringField(fields, "email"),
		City:      stringField(fields, "address_locality"),
		Country:   stringField(fields, "address_country"),
		Notes:     stringField(fields, "notes"),
		DealTitle: stringField(fields, "deal_title"),
		Fields:    fields,
		Raw:       raw,
	}
	if owner, ok := fields["owner_id"].(map[string]any); ok {
		org.OwnerName = stringField(owner, "name")
	}
	if org.ID == 0 {
		return domain.CRMOrganization{}, fmt.Errorf("%w: organization record has no id", ErrMalformedResponse)
	}
	return org, nil
}

// stringField returns the named field as a string, or empty.
func stringField(fields map[string]any, key string) string {
	v, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return v
}

// intField returns the named field as an int64. Pipedrive serialises
// numbers as JSON floats; strings are tolerated for label ids.
func intField(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
