package pipedrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// personBatchSize caps the number of organization ids per multi-id
// person query to keep request URLs and responses bounded.
const personBatchSize = 20

// person is the subset of a Pipedrive person record the client needs
// for phone resolution.
type person struct {
	ID    int64         `json:"id"`
	OrgID orgRef        `json:"org_id"`
	Phone []personPhone `json:"phone"`
}

// personPhone is one labelled phone entry on a person.
type personPhone struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

// orgRef tolerates both serialisations of a person's organization
// reference: a bare id or an object with a value field.
type orgRef struct {
	ID int64
}

func (r *orgRef) UnmarshalJSON(data []byte) error {
	var id float64
	if err := json.Unmarshal(data, &id); err == nil {
		r.ID = int64(id)
		return nil
	}
	var obj struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		r.ID = int64(obj.Value)
		return nil
	}
	r.ID = 0
	return nil
}

// personsByOrgs fetches persons for a set of organization ids in one
// multi-id query, grouped by organization.
func (c *Client) personsByOrgs(ctx context.Context, orgIDs []int64) (map[int64][]person, error) {
	ids := make([]string, 0, len(orgIDs))
	for _, id := range orgIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	params := url.Values{}
	params.Set("org_ids", strings.Join(ids, ","))
	params.Set("limit", strconv.Itoa(DefaultPageLimit))

	env, err := c.get(ctx, "list persons", "/persons", params)
	if err != nil {
		return nil, err
	}
	persons, err := decodePersons(env.Data)
	if err != nil {
		return nil, err
	}

	byOrg := make(map[int64][]person, len(orgIDs))
	for _, p := range persons {
		if p.OrgID.ID == 0 {
			continue
		}
		byOrg[p.OrgID.ID] = append(byOrg[p.OrgID.ID], p)
	}
	return byOrg, nil
}

// personsByOrg fetches the persons attached to a single organization.
func (c *Client) personsByOrg(ctx context.Context, orgID int64) ([]person, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(DefaultPageLimit))

	path := fmt.Sprintf("/organizations/%d/persons", orgID)
	env, err := c.get(ctx, "list organization persons", path, params)
	if err != nil {
		return nil, err
	}
	return decodePersons(env.Data)
}

func decodePersons(data json.RawMessage) ([]person, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var persons []person
	if err := json.Unmarshal(data, &persons); err != nil {
		return nil, fmt.Errorf("%w: persons data is not an array", ErrMalformedResponse)
	}
	return persons, nil
}

// personPhoneValue picks the phone to use from a set of persons: the
// first primary-flagged entry wins, otherwise the first non-empty value.
func personPhoneValue(persons []person) string {
	first := ""
	for _, p := range persons {
		for _, ph := range p.Phone {
			if ph.Value == "" {
				continue
			}
			if ph.Primary {
				return ph.Value
			}
			if first == "" {
				first = ph.Value
			}
		}
	}
	return first
}
