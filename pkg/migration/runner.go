package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/events"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/metrics"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// StageOutcome is one line of the end-of-run summary.
type StageOutcome struct {
	Name     string
	Skipped  bool
	Success  bool
	Count    int
	Failed   int
	Duration time.Duration
}

// Runner executes the enabled steps strictly in declared order, threading
// the shared Context. A step's own top-level error is fatal; per-batch
// failures inside a step are aggregated into its outcome.
type Runner struct {
	steps   []Step
	enabled func(name string) bool
	emitter *events.Emitter
	logger  ectologger.Logger
}

func NewRunner(steps []Step, enabled func(string) bool, emitter *events.Emitter, logger ectologger.Logger) *Runner {
	if enabled == nil {
		enabled = func(string) bool { return true }
	}
	return &Runner{
		steps:   steps,
		enabled: enabled,
		emitter: emitter,
		logger:  logger,
	}
}

// Run executes the pipeline. The returned outcomes always cover every
// declared step, including skipped ones, so the summary is complete even on
// fatal error.
func (r *Runner) Run(ctx context.Context, state *Context) ([]StageOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "migration.Runner.Run")
	defer span.End()

	started := time.Now()
	outcomes := make([]StageOutcome, 0, len(r.steps))

	var fatal error
	for _, step := range r.steps {
		if fatal != nil {
			outcomes = append(outcomes, StageOutcome{Name: step.Name(), Skipped: true})
			continue
		}
		if !r.enabled(step.Name()) {
			r.logger.WithContext(ctx).WithField("step", step.Name()).Info("Step disabled, skipping")
			outcomes = append(outcomes, StageOutcome{Name: step.Name(), Skipped: true})
			continue
		}

		outcome, err := r.runStep(ctx, step, state)
		outcomes = append(outcomes, outcome)
		if err != nil {
			fatal = fmt.Errorf("%w: %s: %v", ErrStepFailed, step.Name(), err)
		}
	}

	r.printSummary(ctx, outcomes, time.Since(started))
	return outcomes, fatal
}

func (r *Runner) runStep(ctx context.Context, step Step, state *Context) (StageOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "migration.Runner.runStep")
	defer span.End()

	log := r.logger.WithContext(ctx).WithField("step", step.Name())
	log.Infof("Running step '%s'", step.Name())

	if r.emitter != nil {
		r.emitter.EmitStageStarted(ctx, step.Name())
	}

	started := time.Now()
	result, err := step.Run(ctx, state)
	elapsed := time.Since(started)

	outcome := StageOutcome{Name: step.Name(), Duration: elapsed}
	if err != nil {
		var me *MigrationError
		if errors.As(err, &me) && me.Stage == "" {
			err = me.AddStage(step.Name())
		}
		log.WithError(err).Errorf("Step '%s' failed", step.Name())
		metrics.RecordStep(step.Name(), "failed", elapsed.Seconds())
		if r.emitter != nil {
			r.emitter.EmitStageCompleted(ctx, step.Name(), false, 0, 0, elapsed)
		}
		return outcome, err
	}

	outcome.Success = result.Success
	outcome.Count = result.Count
	outcome.Failed = result.Failed

	status := "success"
	if !result.Success {
		status = "partial"
	}
	metrics.RecordStep(step.Name(), status, elapsed.Seconds())
	if r.emitter != nil {
		r.emitter.EmitStageCompleted(ctx, step.Name(), result.Success, result.Count, result.Failed, elapsed)
	}

	log.WithFields(map[string]any{
		"count":    result.Count,
		"failed":   result.Failed,
		"duration": elapsed.String(),
	}).Infof("Step '%s' completed", step.Name())

	return outcome, nil
}

func (r *Runner) printSummary(ctx context.Context, outcomes []StageOutcome, total time.Duration) {
	log := r.logger.WithContext(ctx)
	log.Info("================ Migration summary ================")
	for _, o := range outcomes {
		if o.Skipped {
			log.Infof("  - %-28s skipped", o.Name)
			continue
		}
		marker := "✔"
		if !o.Success || o.Failed > 0 {
			marker = "✖"
		}
		log.Infof("  %s %-28s records=%d failed=%d (%s)", marker, o.Name, o.Count, o.Failed, o.Duration.Round(time.Second))
	}
	log.Infof("Total time: %s", FormatDuration(total))
	log.Info("===================================================")
}

// FormatDuration renders a wall-clock duration as HHh MMm SSs.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, secs)
}
