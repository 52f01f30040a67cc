// Package chatwoot implements the SupportDesk driven port against the
// Chatwoot application API (v1).
//
// Every request carries the Api-Access-Token header. List-style
// responses put their records under a payload key (older deployments
// use data); the client accepts either so it works across Chatwoot
// versions. Contact creation nests the new record under
// payload.contact, which is where the id is read from.
//
// Chatwoot rate-limits aggressively. The client paces outgoing
// requests with a token bucket and leans on the retry executor for the
// 429s and transient 5xx responses that get through anyway.
package chatwoot
