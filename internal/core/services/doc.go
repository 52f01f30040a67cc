// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The pipeline service runs fetch → reconcile → sync; the health and
// maintenance services cover monitoring and repair jobs.
package services
