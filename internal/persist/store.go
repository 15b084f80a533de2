// Package persist is an external collaborator (spec §6): run-history
// persistence for the final Run summary. Nothing in the simulation core
// depends on this package; it only ever reads a completed Run.
package persist

import (
	"context"

	"cellevox/internal/model"
)

// Store defines persistence operations for a completed run's summary.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunSummary) error
	GetRun(ctx context.Context, runID string) (model.RunSummary, bool, error)
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
}
