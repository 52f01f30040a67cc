package services

import (
	"context"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/logger"
)

// defaultPageLimit is the CRM page size when none is configured.
const defaultPageLimit = 100

// Fetcher pulls customer organizations out of the CRM: it pages through
// the organization list, keeps only records carrying the customer label,
// resolves their phone numbers and cleans them into mirror records.
type Fetcher struct {
	crm       driven.CRM
	labelID   int64
	pageLimit int
}

// NewFetcher creates a fetcher for the given customer label.
func NewFetcher(crm driven.CRM, labelID int64, pageLimit int) *Fetcher {
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	return &Fetcher{
		crm:       crm,
		labelID:   labelID,
		pageLimit: pageLimit,
	}
}

// FetchAll retrieves every customer organization.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.Organization, error) {
	return f.fetch(ctx, time.Time{})
}

// FetchSince retrieves customer organizations changed after since.
func (f *Fetcher) FetchSince(ctx context.Context, since time.Time) ([]domain.Organization, error) {
	return f.fetch(ctx, since)
}

func (f *Fetcher) fetch(ctx context.Context, since time.Time) ([]domain.Organization, error) {
	var matched []domain.CRMOrganization
	start := 0
	pageNum := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.crm.ListOrganizations(ctx, driven.ListOptions{
			Start: start,
			Limit: f.pageLimit,
			Since: since,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Keep what earlier pages accumulated; callers tolerate
			// undercounts and the next run picks up the rest.
			logger.Error("Organization listing stopped at %d: %s", start, err)
			break
		}
		pageNum++

		kept := 0
		for _, org := range page.Organizations {
			if org.Label != f.labelID {
				continue
			}
			matched = append(matched, org)
			kept++
		}
		logger.Info("Page %d: found %d customer organizations", pageNum, kept)

		if !page.HasMore {
			break
		}
		if page.NextStart > start {
			start = page.NextStart
		} else {
			start += f.pageLimit
		}
	}

	return f.clean(ctx, matched)
}

// clean resolves phones for the matched records and converts them into
// mirror records. Records without a resolvable phone keep an empty one.
func (f *Fetcher) clean(ctx context.Context, matched []domain.CRMOrganization) ([]domain.Organization, error) {
	if len(matched) == 0 {
		return nil, nil
	}

	phones, err := f.crm.ResolvePhones(ctx, matched)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Phone resolution failed, records keep empty phones: %s", err)
		phones = nil
	}

	orgs := make([]domain.Organization, 0, len(matched))
	for i := range matched {
		org := matched[i].Clean(phones[matched[i].ID])
		orgs = append(orgs, org)
	}
	logger.Info("Fetched %d customer organizations (%d with phone numbers)", len(orgs), len(phones))
	return orgs, nil
}
