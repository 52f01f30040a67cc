package chatwoot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/liveport/crmsync/internal/core/domain"
)

// inboxRecord is an inbox as serialised by the API.
type inboxRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ChannelType string `json:"channel_type"`
}

// ListInboxes returns all inboxes of the account.
func (c *Client) ListInboxes(ctx context.Context) ([]domain.Inbox, error) {
	var env listEnvelope
	if err := c.do(ctx, "list inboxes", http.MethodGet, "/inboxes", nil, nil, &env); err != nil {
		return nil, err
	}

	data := env.records()
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var records []inboxRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode inboxes: %w", err)
	}

	inboxes := make([]domain.Inbox, 0, len(records))
	for _, r := range records {
		inboxes = append(inboxes, domain.Inbox{ID: r.ID, Name: r.Name, ChannelType: r.ChannelType})
	}
	return inboxes, nil
}

// AssignInbox attaches a contact to an inbox under the given source id.
func (c *Client) AssignInbox(ctx context.Context, contactID, inboxID int64, sourceID string) error {
	path := fmt.Sprintf("/contacts/%d/contact_inboxes", contactID)
	body := map[string]any{
		"inbox_id":  inboxID,
		"source_id": sourceID,
	}
	return c.do(ctx, "assign inbox", http.MethodPost, path, nil, body, nil)
}
