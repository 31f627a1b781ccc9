// Package pipeline sequences the warehouse stages in their fixed partial
// order: ingest first, then raw load and image classification, then the
// detections load. Scheduling and retries belong to the external
// orchestrator; the runner only executes one run at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medwatch/telegram-warehouse/internal/logger"
)

// Stage names one pipeline step.
type Stage string

// Pipeline stages in dependency order.
const (
	StageIngest         Stage = "ingest"
	StageLoad           Stage = "load"
	StageClassify       Stage = "classify"
	StageLoadDetections Stage = "load_detections"
)

// ErrAlreadyRunning is returned when a run is started while another is active.
var ErrAlreadyRunning = errors.New("a pipeline run is already in progress")

// StageFunc executes one stage for a date and reports how many units
// (messages, rows, images) it handled.
type StageFunc func(ctx context.Context, date string) (count int, err error)

// StageEvent is published after each stage completes or fails.
type StageEvent struct {
	RunID      uuid.UUID `json:"run_id"`
	Stage      Stage     `json:"stage"`
	Date       string    `json:"date"`
	Count      int       `json:"count"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// EventPublisher publishes stage events.
type EventPublisher interface {
	PublishStageCompleted(ctx context.Context, event StageEvent) error
}

// Stages bundles the four stage implementations.
type Stages struct {
	Ingest         StageFunc
	Load           StageFunc
	Classify       StageFunc
	LoadDetections StageFunc
}

// Runner executes pipeline runs.
type Runner struct {
	stages    Stages
	publisher EventPublisher // may be nil, events are best effort
	log       *logger.Logger

	mu      sync.Mutex
	running bool
}

// NewRunner creates a pipeline runner.
func NewRunner(stages Stages, publisher EventPublisher, log *logger.Logger) *Runner {
	return &Runner{
		stages:    stages,
		publisher: publisher,
		log:       log,
	}
}

// RunAll executes every stage for a date in dependency order.
// Load and classify are mutually independent, but the run is linearized
// and stops at the first failure: load_detections must never run against
// a classify output whose sibling stages are suspect, and a failed run
// is rerun whole after the fix, so nothing is gained by finishing the
// other branch.
func (r *Runner) RunAll(ctx context.Context, date string) error {
	return r.run(ctx, date, []Stage{StageIngest, StageLoad, StageClassify, StageLoadDetections})
}

// RunStage executes a single stage for a date.
func (r *Runner) RunStage(ctx context.Context, stage Stage, date string) error {
	return r.run(ctx, date, []Stage{stage})
}

func (r *Runner) run(ctx context.Context, date string, stages []Stage) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	runID := uuid.New()
	r.log.Info().Str("run_id", runID.String()).Str("date", date).Msg("pipeline: run started")

	for _, stage := range stages {
		if err := r.runStage(ctx, runID, stage, date); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	r.log.Info().Str("run_id", runID.String()).Msg("pipeline: run finished")
	return nil
}

func (r *Runner) runStage(ctx context.Context, runID uuid.UUID, stage Stage, date string) error {
	fn := r.stageFunc(stage)
	if fn == nil {
		return fmt.Errorf("stage not configured")
	}

	r.log.Info().Str("stage", string(stage)).Str("date", date).Msg("pipeline: stage started")
	start := time.Now()

	count, err := fn(ctx, date)

	event := StageEvent{
		RunID:      runID,
		Stage:      stage,
		Date:       date,
		Count:      count,
		DurationMS: time.Since(start).Milliseconds(),
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	r.publish(ctx, event)

	if err != nil {
		r.log.Error().Err(err).Str("stage", string(stage)).Msg("pipeline: stage failed")
		return err
	}

	r.log.Info().Str("stage", string(stage)).Int("count", count).Dur("took", time.Since(start)).Msg("pipeline: stage finished")
	return nil
}

func (r *Runner) stageFunc(stage Stage) StageFunc {
	switch stage {
	case StageIngest:
		return r.stages.Ingest
	case StageLoad:
		return r.stages.Load
	case StageClassify:
		return r.stages.Classify
	case StageLoadDetections:
		return r.stages.LoadDetections
	default:
		return nil
	}
}

// publish sends a stage event; publishing failures never affect the run.
func (r *Runner) publish(ctx context.Context, event StageEvent) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishStageCompleted(ctx, event); err != nil {
		r.log.Warn().Err(err).Str("stage", string(event.Stage)).Msg("pipeline: failed to publish stage event")
	}
}
