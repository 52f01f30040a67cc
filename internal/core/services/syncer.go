package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
	"github.com/liveport/crmsync/internal/logger"
)

// CustomerLabel is the label attached to every synced contact.
const CustomerLabel = "customer"

// SyncResult summarises one syncer pass over the unsynced mirror rows.
type SyncResult struct {
	// Processed counts every record the pass attempted.
	Processed int

	// Synced counts records that reached the support desk.
	Synced int

	// Failures holds one message per failed record.
	Failures []string
}

// ErrorSummary joins the failure messages, capped so the run log stays
// readable on large failure sets.
func (r *SyncResult) ErrorSummary() string {
	const maxListed = 5
	if len(r.Failures) == 0 {
		return ""
	}
	listed := r.Failures
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	summary := strings.Join(listed, "; ")
	if extra := len(r.Failures) - maxListed; extra > 0 {
		summary += fmt.Sprintf("; and %d more", extra)
	}
	return summary
}

// Syncer pushes unsynced mirror records to the support desk: search by
// name, create or update, assign the customer inbox, attach the
// customer label, then flip the record's synced flag.
type Syncer struct {
	desk driven.SupportDesk
	orgs driven.OrganizationStore

	// inboxID pins the target inbox; zero means resolve by name hint.
	inboxID       int64
	inboxNameHint string

	// flushEvery bounds the buffered synced-flag updates between
	// store flushes.
	flushEvery int
}

// NewSyncer creates a syncer. inboxID zero means the inbox is resolved
// by matching inboxNameHint against inbox names.
func NewSyncer(desk driven.SupportDesk, orgs driven.OrganizationStore, inboxID int64, inboxNameHint string, flushEvery int) *Syncer {
	if flushEvery <= 0 {
		flushEvery = 50
	}
	return &Syncer{
		desk:          desk,
		orgs:          orgs,
		inboxID:       inboxID,
		inboxNameHint: inboxNameHint,
		flushEvery:    flushEvery,
	}
}

// ResolveInbox picks the target inbox: a configured id wins, otherwise
// the first inbox whose name contains the hint (case-insensitive).
// Returns ErrInboxNotFound when nothing matches.
func (s *Syncer) ResolveInbox(ctx context.Context) (*domain.Inbox, error) {
	inboxes, err := s.desk.ListInboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inboxes: %w", err)
	}

	if s.inboxID != 0 {
		for i := range inboxes {
			if inboxes[i].ID == s.inboxID {
				return &inboxes[i], nil
			}
		}
		return nil, fmt.Errorf("%w: configured inbox id %d", domain.ErrInboxNotFound, s.inboxID)
	}

	hint := strings.ToLower(s.inboxNameHint)
	for i := range inboxes {
		if strings.Contains(strings.ToLower(inboxes[i].Name), hint) {
			return &inboxes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no inbox name contains %q", domain.ErrInboxNotFound, s.inboxNameHint)
}

// SyncUnsynced pushes every unsynced mirror record to the support desk.
// Per-record failures are collected, never fatal: one bad record must
// not abort the pass. With dryRun set, nothing is written anywhere.
func (s *Syncer) SyncUnsynced(ctx context.Context, dryRun bool) (*SyncResult, error) {
	// Fail before any mutation when the token is bad.
	if err := s.desk.ValidateToken(ctx); err != nil {
		return nil, fmt.Errorf("support desk token: %w", err)
	}

	inbox, err := s.ResolveInbox(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrInboxNotFound) {
			return nil, err
		}
		logger.Warn("Could not resolve customer inbox, contacts may not be visible: %s", err)
		inbox = nil
	} else {
		logger.Info("Using inbox: %s (ID: %d)", inbox.Name, inbox.ID)
	}

	pending, err := s.orgs.ListUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unsynced: %w", err)
	}
	logger.Info("Syncing %d organizations", len(pending))

	result := &SyncResult{}
	pass := &syncPass{
		usedPhones: make(map[string]bool),
		searches:   make(map[string][]domain.Contact),
	}
	var buffered []driven.SyncedUpdate

	for i := range pending {
		if err := ctx.Err(); err != nil {
			// Flush what already succeeded before bailing out.
			if ferr := s.flush(context.WithoutCancel(ctx), &buffered, dryRun); ferr != nil {
				logger.Error("Flushing sync state after cancellation: %s", ferr)
			}
			return result, err
		}

		org := &pending[i]
		result.Processed++

		if dryRun {
			logger.Info("[dry-run] Would sync: %s", org.Name)
			result.Synced++
			continue
		}

		contactID, err := s.syncOne(ctx, org, pass)
		if err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", org.Name, err))
			logger.Error("Failed to sync %s: %s", org.Name, err)
			continue
		}

		s.decorate(ctx, org, contactID, inbox)

		result.Synced++
		buffered = append(buffered, driven.SyncedUpdate{CRMOrgID: org.CRMOrgID, RemoteContactID: contactID})
		if len(buffered) >= s.flushEvery {
			if err := s.flush(ctx, &buffered, dryRun); err != nil {
				return result, err
			}
		}
	}

	if err := s.flush(ctx, &buffered, dryRun); err != nil {
		return result, err
	}

	logger.Info("Sync pass complete: %d/%d synced, %d failures",
		result.Synced, result.Processed, len(result.Failures))
	return result, nil
}

// syncPass holds state scoped to one SyncUnsynced run: the name search
// cache and the phone numbers already claimed by earlier records. The
// remote side enforces phone uniqueness.
type syncPass struct {
	usedPhones map[string]bool
	searches   map[string][]domain.Contact
}

// syncOne creates or updates the contact for one organization and
// returns the contact id. A duplicate-phone rejection is retried once
// without the phone so a shared number cannot block the record.
func (s *Syncer) syncOne(ctx context.Context, org *domain.Organization, pass *syncPass) (int64, error) {
	existing, cached := pass.searches[org.Name]
	if !cached {
		var err error
		existing, err = s.desk.SearchContacts(ctx, org.Name)
		if err != nil {
			return 0, fmt.Errorf("search: %w", err)
		}
		pass.searches[org.Name] = existing
	}

	phone := org.Phone
	if phone != "" && pass.usedPhones[phone] {
		logger.Warn("Phone %s already used this run, syncing %s without it", phone, org.Name)
		phone = ""
	}

	write := domain.ContactWrite{
		Name:             org.Name,
		Phone:            phone,
		CustomAttributes: domain.ContactAttributes(org),
	}

	if len(existing) > 0 {
		id := existing[0].ID
		if err := s.writeContact(ctx, org, func(w domain.ContactWrite) error {
			return s.desk.UpdateContact(ctx, id, w)
		}, write); err != nil {
			return 0, fmt.Errorf("update: %w", err)
		}
		if phone != "" {
			pass.usedPhones[phone] = true
		}
		return id, nil
	}

	var id int64
	if err := s.writeContact(ctx, org, func(w domain.ContactWrite) error {
		var cerr error
		id, cerr = s.desk.CreateContact(ctx, w)
		return cerr
	}, write); err != nil {
		return 0, fmt.Errorf("create: %w", err)
	}
	if phone != "" {
		pass.usedPhones[phone] = true
	}
	return id, nil
}

// writeContact performs a contact write, retrying once without the
// phone when the remote side reports the number as taken.
func (s *Syncer) writeContact(ctx context.Context, org *domain.Organization, write func(domain.ContactWrite) error, payload domain.ContactWrite) error {
	err := write(payload)
	if err == nil {
		return nil
	}
	if payload.Phone != "" && errors.Is(err, domain.ErrDuplicatePhone) {
		logger.Warn("Phone %s already taken, retrying %s without phone", payload.Phone, org.Name)
		payload.Phone = ""
		return write(payload)
	}
	return err
}

// decorate assigns the inbox and customer label after a successful
// write. Both are best-effort: failures are logged, the record still
// counts as synced.
func (s *Syncer) decorate(ctx context.Context, org *domain.Organization, contactID int64, inbox *domain.Inbox) {
	if inbox != nil {
		sourceID := fmt.Sprintf("pipedrive_%d", contactID)
		if err := s.desk.AssignInbox(ctx, contactID, inbox.ID, sourceID); err != nil {
			logger.Warn("Could not assign %s to inbox: %s", org.Name, err)
		}
	}

	if err := s.desk.AddContactLabels(ctx, contactID, []string{CustomerLabel}); err != nil {
		logger.Warn("Could not label %s: %s", org.Name, err)
	}
}

// flush applies buffered synced-flag updates and empties the buffer.
func (s *Syncer) flush(ctx context.Context, buffered *[]driven.SyncedUpdate, dryRun bool) error {
	if dryRun || len(*buffered) == 0 {
		*buffered = nil
		return nil
	}
	if err := s.orgs.MarkSynced(ctx, *buffered); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	*buffered = nil
	return nil
}
