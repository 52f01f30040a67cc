// Package domain defines the core business entities for crmsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Organization: A CRM organization mirrored in the local store
//   - Contact: A support-desk contact linked to an organization
//   - SyncRun: The append-only record of one sync execution
//   - Watermark: The boundary of the last successful incremental fetch
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
