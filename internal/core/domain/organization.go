package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// StatusCustomer is the fixed status for in-scope organizations.
// Only organizations carrying the customer classification label are synced.
const StatusCustomer = "Customer"

// Organization is a CRM organization mirrored in the local store.
// Identity is the CRM organization id; each fetch cycle replaces or
// upserts the row, and the synced flag transitions 0→1 exactly once per
// sync pass (reset only by a full reload).
type Organization struct {
	// CRMOrgID is the Pipedrive organization id (unique key).
	CRMOrgID int64

	// Name is the display name, trimmed.
	Name string

	// Phone is the normalized E.164-like phone number, or empty.
	Phone string

	// Email is the contact email, trimmed.
	Email string

	// City is the address locality.
	City string

	// Country is the address country.
	Country string

	// Status is always StatusCustomer for in-scope records.
	Status string

	// SupportLink is the per-customer support portal URL, if any.
	SupportLink string

	// Notes holds free-text notes from the CRM.
	Notes string

	// DealTitle is the title of the most relevant open deal.
	DealTitle string

	// OwnerName is the CRM-side account owner.
	OwnerName string

	// Raw is the verbatim CRM payload, preserved for auxiliary scripts
	// that read fields not yet modelled as columns.
	Raw json.RawMessage

	// Synced reports whether this record reached the support desk.
	Synced bool

	// RemoteContactID is the support-desk contact id once synced.
	// Nil until the first successful sync of this record.
	RemoteContactID *int64

	// UpdatedAt is when the mirror row was last written.
	UpdatedAt time.Time
}

// CRMOrganization is an organization as returned by the CRM API, before
// cleaning. Fields carries every key of the raw payload so callers can
// scan custom fields (support links, phone-bearing hashes).
type CRMOrganization struct {
	ID        int64
	Name      string
	Label     int64
	Phone     string
	Email     string
	City      string
	Country   string
	Notes     string
	DealTitle string
	OwnerName string
	Fields    map[string]any
	Raw       json.RawMessage
}

// Clean converts a raw CRM organization into a mirror record.
// Phone is expected to already be resolved and normalized by the caller.
func (o *CRMOrganization) Clean(phone string) Organization {
	return Organization{
		CRMOrgID:    o.ID,
		Name:        strings.TrimSpace(o.Name),
		Phone:       phone,
		Email:       strings.TrimSpace(o.Email),
		City:        strings.TrimSpace(o.City),
		Country:     strings.TrimSpace(o.Country),
		Status:      StatusCustomer,
		SupportLink: strings.TrimSpace(o.stringField("Common Support Link", "Main Support Link")),
		Notes:       strings.TrimSpace(o.Notes),
		DealTitle:   strings.TrimSpace(o.DealTitle),
		OwnerName:   strings.TrimSpace(o.OwnerName),
		Raw:         o.Raw,
	}
}

// stringField returns the first non-empty string value among the named
// raw payload keys.
func (o *CRMOrganization) stringField(keys ...string) string {
	for _, key := range keys {
		if v, ok := o.Fields[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
