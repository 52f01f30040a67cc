package chatwoot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/liveport/crmsync/internal/core/domain"
	"github.com/liveport/crmsync/internal/core/ports/driven"
)

// Compile-time check that Client satisfies the SupportDesk port.
var _ driven.SupportDesk = (*Client)(nil)

// contactRecord is a contact as serialised by the API.
type contactRecord struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	PhoneNumber      string         `json:"phone_number"`
	Email            string         `json:"email"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

func (r contactRecord) toDomain() domain.Contact {
	return domain.Contact{
		ID:               r.ID,
		Name:             r.Name,
		PhoneNumber:      r.PhoneNumber,
		Email:            r.Email,
		CustomAttributes: r.CustomAttributes,
	}
}

// listEnvelope tolerates both payload and data keys for list responses.
type listEnvelope struct {
	Payload json.RawMessage `json:"payload"`
	Data    json.RawMessage `json:"data"`
}

func (e *listEnvelope) records() json.RawMessage {
	if len(e.Payload) > 0 && string(e.Payload) != "null" {
		return e.Payload
	}
	return e.Data
}

// contactWriteBody is the request payload for contact writes. Phone is
// omitted entirely when empty so a dedup retry never clears a phone the
// remote side already holds.
type contactWriteBody struct {
	Name             string         `json:"name"`
	PhoneNumber      string         `json:"phone_number,omitempty"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

// ValidateToken checks the credentials against the profile endpoint.
func (c *Client) ValidateToken(ctx context.Context) error {
	err := c.do(ctx, "validate token", http.MethodGet, "/profile", nil, nil, nil)
	if err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		}
		return err
	}
	return nil
}

// SearchContacts searches contacts by name, best match first.
func (c *Client) SearchContacts(ctx context.Context, query string) ([]domain.Contact, error) {
	params := url.Values{}
	params.Set("q", query)

	var env listEnvelope
	if err := c.do(ctx, "search contacts", http.MethodGet, "/contacts/search", params, nil, &env); err != nil {
		return nil, err
	}
	return decodeContacts(env.records())
}

// ListContacts fetches one page of all contacts. Pages are 1-based; an
// empty result means the end of the collection.
func (c *Client) ListContacts(ctx context.Context, page, perPage int) ([]domain.Contact, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var env listEnvelope
	if err := c.do(ctx, "list contacts", http.MethodGet, "/contacts", params, nil, &env); err != nil {
		return nil, err
	}
	return decodeContacts(env.records())
}

// CreateContact creates a contact and returns the id from
// payload.contact.id.
func (c *Client) CreateContact(ctx context.Context, write domain.ContactWrite) (int64, error) {
	var out struct {
		Payload struct {
			Contact contactRecord `json:"contact"`
		} `json:"payload"`
	}
	if err := c.do(ctx, "create contact", http.MethodPost, "/contacts", nil, writeBody(write), &out); err != nil {
		return 0, err
	}
	if out.Payload.Contact.ID == 0 {
		return 0, ErrNoContactID
	}
	return out.Payload.Contact.ID, nil
}

// UpdateContact overwrites an existing contact.
func (c *Client) UpdateContact(ctx context.Context, id int64, write domain.ContactWrite) error {
	path := fmt.Sprintf("/contacts/%d", id)
	return c.do(ctx, "update contact", http.MethodPut, path, nil, writeBody(write), nil)
}

// DeleteContact removes a contact.
func (c *Client) DeleteContact(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/contacts/%d", id)
	return c.do(ctx, "delete contact", http.MethodDelete, path, nil, nil, nil)
}

// ContactLabels returns the labels currently on a contact.
func (c *Client) ContactLabels(ctx context.Context, contactID int64) ([]string, error) {
	path := fmt.Sprintf("/contacts/%d/labels", contactID)

	var out struct {
		Payload []string `json:"payload"`
	}
	if err := c.do(ctx, "list contact labels", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

// AddContactLabels attaches labels to a contact.
func (c *Client) AddContactLabels(ctx context.Context, contactID int64, labels []string) error {
	path := fmt.Sprintf("/contacts/%d/labels", contactID)
	body := map[string][]string{"labels": labels}
	return c.do(ctx, "add contact labels", http.MethodPost, path, nil, body, nil)
}

// CountContacts returns the account-wide contact total from the list
// metadata.
func (c *Client) CountContacts(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("per_page", "1")

	var out struct {
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	if err := c.do(ctx, "count contacts", http.MethodGet, "/contacts", params, nil, &out); err != nil {
		return 0, err
	}
	return out.Meta.Count, nil
}

func writeBody(write domain.ContactWrite) contactWriteBody {
	return contactWriteBody{
		Name:             write.Name,
		PhoneNumber:      write.Phone,
		CustomAttributes: write.CustomAttributes,
	}
}

func decodeContacts(data json.RawMessage) ([]domain.Contact, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var records []contactRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	contacts := make([]domain.Contact, 0, len(records))
	for _, r := range records {
		contacts = append(contacts, r.toDomain())
	}
	return contacts, nil
}
