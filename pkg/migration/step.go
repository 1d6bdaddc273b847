package migration

import "context"

// Result is what every step reports back to the runner. In-step batch
// failures are aggregated here without aborting the run; a step returns an
// error only for fatal conditions.
type Result struct {
	Success bool
	Count   int
	Failed  int
}

// Step is a named unit of migration work. Steps must be idempotent:
// re-running over unchanged source and target leaves the target semantically
// unchanged.
type Step interface {
	Name() string
	Run(ctx context.Context, state *Context) (*Result, error)
}
