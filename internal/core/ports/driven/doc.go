// Package driven defines the outbound ports of the hexagon: interfaces
// the core services depend on, implemented by adapters (API clients,
// the SQLite store, the notifier).
package driven
