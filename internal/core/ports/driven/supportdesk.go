package driven

import (
	"context"

	"github.com/liveport/crmsync/internal/core/domain"
)

// SupportDesk is the downstream contact database (Chatwoot). Contacts
// are not owned by this system; every method is a remote API call.
type SupportDesk interface {
	// ValidateToken checks API credentials against the profile
	// endpoint. A failure here is fatal at startup.
	ValidateToken(ctx context.Context) error

	// ListInboxes returns all inboxes of the account.
	ListInboxes(ctx context.Context) ([]domain.Inbox, error)

	// SearchContacts searches contacts by name, best match first.
	SearchContacts(ctx context.Context, query string) ([]domain.Contact, error)

	// ListContacts fetches one page of all contacts (1-based page).
	ListContacts(ctx context.Context, page, perPage int) ([]domain.Contact, error)

	// CreateContact creates a contact and returns its id.
	CreateContact(ctx context.Context, write domain.ContactWrite) (int64, error)

	// UpdateContact overwrites an existing contact.
	UpdateContact(ctx context.Context, id int64, write domain.ContactWrite) error

	// DeleteContact removes a contact.
	DeleteContact(ctx context.Context, id int64) error

	// AssignInbox attaches a contact to an inbox (best-effort for the
	// syncer: failures are logged, not fatal).
	AssignInbox(ctx context.Context, contactID, inboxID int64, sourceID string) error

	// ContactLabels returns the labels currently on a contact.
	ContactLabels(ctx context.Context, contactID int64) ([]string, error)

	// AddContactLabels attaches labels to a contact.
	AddContactLabels(ctx context.Context, contactID int64, labels []string) error

	// CountContacts returns the account-wide contact total, used by
	// health checks.
	CountContacts(ctx context.Context) (int, error)
}
