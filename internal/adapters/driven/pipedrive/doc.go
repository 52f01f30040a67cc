// Package pipedrive implements the CRM driven port against the
// Pipedrive REST API (v1).
//
// The client authenticates with an API token passed as the api_token
// query parameter on every request. Responses share a common envelope:
// a success flag, a data array, and additional_data.pagination carrying
// more_items_in_collection and next_start for offset paging.
//
// # Rate Limiting
//
// Pipedrive enforces a per-token budget of roughly 90 requests per
// 10 seconds. The client paces itself with a token bucket well under
// that limit and relies on the retry executor to absorb 429 responses
// that slip through.
//
// # Phone Resolution
//
// Organisations in Pipedrive do not carry a native phone field. The
// client resolves phone numbers through a fallback chain: a configured
// organisation custom field, then any organisation field whose key
// suggests a phone number, and finally the phones of the persons
// attached to the organisation. Person lookups are batched to keep
// request counts down; a failed batch degrades to per-organisation
// queries so one bad record cannot sink the whole batch.
package pipedrive
