package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// DefaultBatchSize is the number of mirror rows committed per
// transaction during replace and upsert passes.
const DefaultBatchSize = 50

// organizationStore implements driven.OrganizationStore.
type organizationStore struct {
	store *Store
}

var _ driven.OrganizationStore = (*organizationStore)(nil)

const organizationColumns = `pipedrive_org_id, name, phone, email, city, country,
	status, support_link, notes, deal_title, owner_name, raw_payload,
	synced_to_remote, remote_contact_id, updated_at`

// ReplaceAll clears the mirror and inserts all records with synced=0.
// Rows are committed in batches so a failure partway keeps the work of
// completed batches.
func (s *organizationStore) ReplaceAll(ctx context.Context, orgs []domain.Organization, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM organizations"); err != nil {
		return fmt.Errorf("clearing organizations: %w", err)
	}

	for start := 0; start < len(orgs); start += batchSize {
		end := start + batchSize
		if end > len(orgs) {
			end = len(orgs)
		}
		if err := s.insertBatch(ctx, orgs[start:end]); err != nil {
			return fmt.Errorf("inserting batch at %d: %w", start, err)
		}
	}
	return nil
}

// Upsert inserts or updates records by CRM id, preserving the synced
// flag and remote contact id of existing rows.
func (s *organizationStore) Upsert(ctx context.Context, orgs []domain.Organization, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for start := 0; start < len(orgs); start += batchSize {
		end := start + batchSize
		if end > len(orgs) {
			end = len(orgs)
		}
		if err := s.upsertBatch(ctx, orgs[start:end]); err != nil {
			return fmt.Errorf("upserting batch at %d: %w", start, err)
		}
	}
	return nil
}

func (s *organizationStore) insertBatch(ctx context.Context, orgs []domain.Organization) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO organizations (`+organizationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, org := range orgs {
		if _, err := stmt.ExecContext(ctx,
			org.CRMOrgID, org.Name, org.Phone, org.Email, org.City, org.Country,
			org.Status, org.SupportLink, org.Notes, org.DealTitle, org.OwnerName,
			rawPayload(org), now,
		); err != nil {
			return fmt.Errorf("inserting organization %d: %w", org.CRMOrgID, err)
		}
	}
	return tx.Commit()
}

func (s *organizationStore) upsertBatch(ctx context.Context, orgs []domain.Organization) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO organizations (`+organizationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
		ON CONFLICT(pipedrive_org_id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			city = excluded.city,
			country = excluded.country,
			status = excluded.status,
			support_link = excluded.support_link,
			notes = excluded.notes,
			deal_title = excluded.deal_title,
			owner_name = excluded.owner_name,
			raw_payload = excluded.raw_payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, org := range orgs {
		if _, err := stmt.ExecContext(ctx,
			org.CRMOrgID, org.Name, org.Phone, org.Email, org.City, org.Country,
			org.Status, org.SupportLink, org.Notes, org.DealTitle, org.OwnerName,
			rawPayload(org), now,
		); err != nil {
			return fmt.Errorf("upserting organization %d: %w", org.CRMOrgID, err)
		}
	}
	return tx.Commit()
}

// ListUnsynced returns mirror records with synced=0 in stable name order.
func (s *organizationStore) ListUnsynced(ctx context.Context) ([]domain.Organization, error) {
	return s.list(ctx, 0)
}

// ListSynced returns mirror records with synced=1 in stable name order.
func (s *organizationStore) ListSynced(ctx context.Context) ([]domain.Organization, error) {
	return s.list(ctx, 1)
}

func (s *organizationStore) list(ctx context.Context, synced int) ([]domain.Organization, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+organizationColumns+`
		FROM organizations
		WHERE synced_to_remote = ?
		ORDER BY name, pipedrive_org_id
	`, synced)
	if err != nil {
		return nil, fmt.Errorf("querying organizations: %w", err)
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// MarkSynced applies buffered synced-flag updates in one transaction.
func (s *organizationStore) MarkSynced(ctx context.Context, updates []driven.SyncedUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE organizations
		SET synced_to_remote = 1, remote_contact_id = ?, updated_at = ?
		WHERE pipedrive_org_id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.RemoteContactID, now, u.CRMOrgID); err != nil {
			return fmt.Errorf("marking organization %d synced: %w", u.CRMOrgID, err)
		}
	}
	return tx.Commit()
}

// Counts returns (total, synced) row counts.
func (s *organizationStore) Counts(ctx context.Context) (int, int, error) {
	var total, synced int
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(synced_to_remote), 0) FROM organizations
	`)
	if err := row.Scan(&total, &synced); err != nil {
		return 0, 0, fmt.Errorf("counting organizations: %w", err)
	}
	return total, synced, nil
}

// CountStaleUnsynced counts records unsynced since before cutoff.
func (s *organizationStore) CountStaleUnsynced(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM organizations
		WHERE synced_to_remote = 0 AND updated_at < ?
	`, cutoff.UTC())
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting stale organizations: %w", err)
	}
	return count, nil
}

// rawPayload stores the verbatim CRM payload, NULL when absent.
func rawPayload(org domain.Organization) any {
	if len(org.Raw) == 0 {
		return nil
	}
	return string(org.Raw)
}

// scanOrganization reads one mirror row.
func scanOrganization(rows *sql.Rows) (domain.Organization, error) {
	var (
		org             domain.Organization
		raw             sql.NullString
		remoteContactID sql.NullInt64
		synced          int
	)
	err := rows.Scan(
		&org.CRMOrgID, &org.Name, &org.Phone, &org.Email, &org.City, &org.Country,
		&org.Status, &org.SupportLink, &org.Notes, &org.DealTitle, &org.OwnerName,
		&raw, &synced, &remoteContactID, &org.UpdatedAt,
	)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("scanning organization: %w", err)
	}
	if raw.Valid {
		org.Raw = []byte(raw.String)
	}
	org.Synced = synced == 1
	if remoteContactID.Valid {
		id := remoteContactID.Int64
		org.RemoteContactID = &id
	}
	return org, nil
}
