// Package events publishes migration stage lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// Emitter publishes stage lifecycle events for one migration run. Emission
// failures are logged and swallowed; eventing never affects the run itself.
type Emitter struct {
	producer *Producer
	runID    string
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *Producer, runID string, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		runID:    runID,
		logger:   logger,
	}
}

// EmitStageStarted emits a stage.started event
func (e *Emitter) EmitStageStarted(ctx context.Context, stage string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitStageStarted")
	defer span.End()

	event := &StageEvent{
		EventType: "stage.started",
		RunID:     e.runID,
		Stage:     stage,
	}

	if err := e.producer.PublishStageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit stage.started event")
	}
}

// EmitStageCompleted emits a stage.completed event
func (e *Emitter) EmitStageCompleted(ctx context.Context, stage string, success bool, count, failed int, duration time.Duration) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitStageCompleted")
	defer span.End()

	event := &StageEvent{
		EventType:  "stage.completed",
		RunID:      e.runID,
		Stage:      stage,
		Success:    success,
		Count:      count,
		Failed:     failed,
		DurationMS: duration.Milliseconds(),
	}

	if err := e.producer.PublishStageEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit stage.completed event")
	}
}
