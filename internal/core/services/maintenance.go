package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/core/ports/driving"
	"github.com/liveport/crmsync/internal/logger"
)

// Ensure MaintenanceService implements the interface.
var _ driving.Maintainer = (*MaintenanceService)(nil)

// MaintenanceService covers the occasional repair jobs on the support
// desk: backfilling labels on contacts synced before labelling existed,
// re-running inbox assignment, and wiping the contact database.
type MaintenanceService struct {
	desk   driven.SupportDesk
	orgs   driven.OrganizationStore
	syncer *Syncer
}

// NewMaintenanceService creates a maintenance service. The syncer is
// used for inbox resolution so both paths pick the same inbox.
func NewMaintenanceService(desk driven.SupportDesk, orgs driven.OrganizationStore, syncer *Syncer) *MaintenanceService {
	return &MaintenanceService{
		desk:   desk,
		orgs:   orgs,
		syncer: syncer,
	}
}

// BackfillLabels attaches the customer label to every synced contact
// that does not carry it yet. Returns (checked, added) counts.
func (m *MaintenanceService) BackfillLabels(ctx context.Context) (int, int, error) {
	synced, err := m.orgs.ListSynced(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list synced: %w", err)
	}

	checked, added := 0, 0
	for i := range synced {
		if err := ctx.Err(); err != nil {
			return checked, added, err
		}
		org := &synced[i]
		if org.RemoteContactID == nil {
			continue
		}
		checked++

		labels, err := m.desk.ContactLabels(ctx, *org.RemoteContactID)
		if err != nil {
			logger.Warn("Could not read labels for %s: %s", org.Name, err)
			continue
		}
		if slices.Contains(labels, CustomerLabel) {
			continue
		}

		if err := m.desk.AddContactLabels(ctx, *org.RemoteContactID, []string{CustomerLabel}); err != nil {
			logger.Warn("Could not label %s: %s", org.Name, err)
			continue
		}
		added++
		logger.Info("Labelled %s", org.Name)
	}

	logger.Info("Label backfill complete: %d contacts checked, %d labelled", checked, added)
	return checked, added, nil
}

// ReassignInboxes re-runs inbox assignment for every synced contact.
// Used after an inbox was recreated or assignment failed during a run.
func (m *MaintenanceService) ReassignInboxes(ctx context.Context) (int, error) {
	inbox, err := m.syncer.ResolveInbox(ctx)
	if err != nil {
		return 0, err
	}
	logger.Info("Reassigning contacts to inbox %s (ID: %d)", inbox.Name, inbox.ID)

	synced, err := m.orgs.ListSynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("list synced: %w", err)
	}

	assigned := 0
	for i := range synced {
		if err := ctx.Err(); err != nil {
			return assigned, err
		}
		org := &synced[i]
		if org.RemoteContactID == nil {
			continue
		}

		sourceID := fmt.Sprintf("pipedrive_%d", *org.RemoteContactID)
		if err := m.desk.AssignInbox(ctx, *org.RemoteContactID, inbox.ID, sourceID); err != nil {
			logger.Warn("Could not assign %s: %s", org.Name, err)
			continue
		}
		assigned++
	}

	logger.Info("Inbox reassignment complete: %d contacts assigned", assigned)
	return assigned, nil
}

// Clean deletes every contact from the support desk, paging until the
// collection is empty. Destructive; callers must confirm first.
func (m *MaintenanceService) Clean(ctx context.Context) (int, error) {
	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		// Deleting shifts pagination, so always take page 1.
		contacts, err := m.desk.ListContacts(ctx, 1, 0)
		if err != nil {
			return deleted, fmt.Errorf("list contacts: %w", err)
		}
		if len(contacts) == 0 {
			break
		}

		pass := 0
		for _, contact := range contacts {
			if err := ctx.Err(); err != nil {
				return deleted, err
			}
			if err := m.desk.DeleteContact(ctx, contact.ID); err != nil {
				logger.Warn("Could not delete contact %d: %s", contact.ID, err)
				continue
			}
			deleted++
			pass++
			logger.Debug("Deleted contact %d (%s)", contact.ID, contact.Name)
		}
		if pass == 0 {
			return deleted, fmt.Errorf("no contacts could be deleted, %d remain", len(contacts))
		}
	}

	logger.Info("Clean complete: %d contacts deleted", deleted)
	return deleted, nil
}
