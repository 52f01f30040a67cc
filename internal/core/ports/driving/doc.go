// Package driving defines the inbound ports of the hexagon: the
// interfaces through which the CLI drives the core services.
package driving
