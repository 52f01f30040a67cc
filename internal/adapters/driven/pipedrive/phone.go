package pipedrive

import (
	"context"
	"strings"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/logger"
)

// ResolvePhones resolves phone numbers for a batch of organizations.
// Field-level sources are checked in a single local pass; organizations
// still unresolved afterwards are looked up through their persons in
// sub-batches, degrading to per-organization queries if a batch fails.
// Entries are omitted when no usable phone exists anywhere.
func (c *Client) ResolvePhones(ctx context.Context, orgs []domain.CRMOrganization) (map[int64]string, error) {
	phones := make(map[int64]string, len(orgs))
	var unresolved []int64

	for i := range orgs {
		org := &orgs[i]
		if phone := c.fieldPhone(org); phone != "" {
			phones[org.ID] = phone
			continue
		}
		unresolved = append(unresolved, org.ID)
	}

	for start := 0; start < len(unresolved); start += personBatchSize {
		end := start + personBatchSize
		if end > len(unresolved) {
			end = len(unresolved)
		}
		batch := unresolved[start:end]

		byOrg, err := c.personsByOrgs(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Batched person lookup failed (%s), falling back to per-organization queries", err)
			if err := c.resolveOneByOne(ctx, batch, phones); err != nil {
				return nil, err
			}
			continue
		}
		for _, orgID := range batch {
			if phone := c.normalize(personPhoneValue(byOrg[orgID])); phone != "" {
				phones[orgID] = phone
			}
		}
	}
	return phones, nil
}

// resolveOneByOne resolves each organization in the batch with its own
// person query. Individual failures are logged and skipped so one bad
// record cannot sink the batch.
func (c *Client) resolveOneByOne(ctx context.Context, orgIDs []int64, phones map[int64]string) error {
	for _, orgID := range orgIDs {
		persons, err := c.personsByOrg(ctx, orgID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Person lookup for organization %d failed: %s", orgID, err)
			continue
		}
		if phone := c.normalize(personPhoneValue(persons)); phone != "" {
			phones[orgID] = phone
		}
	}
	return nil
}

// fieldPhone resolves a phone from the organization record itself:
// the native phone attribute, the configured custom field, then any
// field whose key suggests a phone number and whose value has digits.
func (c *Client) fieldPhone(org *domain.CRMOrganization) string {
	if phone := c.normalize(org.Phone); phone != "" {
		return phone
	}
	if c.cfg.PhoneFieldKey != "" {
		if v, ok := org.Fields[c.cfg.PhoneFieldKey].(string); ok {
			if phone := c.normalize(v); phone != "" {
				return phone
			}
		}
	}
	for key, value := range org.Fields {
		if !strings.Contains(strings.ToLower(key), "phone") {
			continue
		}
		v, ok := value.(string)
		if !ok || !hasDigit(v) {
			continue
		}
		if phone := c.normalize(v); phone != "" {
			return phone
		}
	}
	return ""
}

func (c *Client) normalize(raw string) string {
	return domain.NormalizePhone(raw, c.cfg.CountryCode)
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
