package organize

import (
	"context"

	"filesorter/pkg/types"
)

// Placer decides and performs file placements.
// This allows for dependency injection in the review UI and tests
type Placer interface {
	// Plan computes where a file goes without moving anything
	Plan(cand types.Candidate, target string) types.Decision

	// Apply performs a planned decision
	Apply(d types.Decision) types.Outcome
}

// Runner runs sort passes over a target folder
type Runner interface {
	// Run performs one sort pass
	Run(ctx context.Context) (*types.Report, error)

	// Plan lists the decisions a pass would make
	Plan(ctx context.Context) ([]types.Decision, error)
}

// Ensure Sorter implements the Runner interface
var _ Runner = (*Sorter)(nil)
