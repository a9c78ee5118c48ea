// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: load → radius → extract → describe → prune → cluster →
// persist → publish → report
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trip-motif-lab/internal/config"
	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/idhash"
	"trip-motif-lab/internal/motif"
	"trip-motif-lab/internal/observability"
	"trip-motif-lab/internal/storage"
)

// ErrMissingStore is returned by New when a required store is nil.
var ErrMissingStore = errors.New("orchestrator: missing store")

// Publisher sends run results to downstream consumers.
type Publisher interface {
	PublishRun(ctx context.Context, run *domain.Run) error
	PublishMotifs(ctx context.Context, runID string, motifs []domain.Motif, pruned bool) error
	PublishClusters(ctx context.Context, runID string, clusters []domain.Cluster, summaries []domain.ClusterSummary) error
}

// Orchestrator coordinates the E2E pipeline execution.
type Orchestrator struct {
	cfg *config.Config

	// Stores
	tripStore       storage.TripStore
	runStore        storage.RunStore
	motifStore      storage.MotifStore
	clusterStore    storage.ClusterStore
	checkpointStore storage.CheckpointStore // optional

	publisher Publisher // optional
	tripIDs   []string
	runID     string
	reportDir string
	onEvent   func(Event)

	tracer  trace.Tracer
	now     func() time.Time
	verbose bool
}

// Options for creating Orchestrator.
type Options struct {
	Config *config.Config

	// Required stores
	TripStore    storage.TripStore
	RunStore     storage.RunStore
	MotifStore   storage.MotifStore
	ClusterStore storage.ClusterStore

	// CheckpointStore enables stage checkpoints and resuming.
	CheckpointStore storage.CheckpointStore

	// Publisher receives results when set.
	Publisher Publisher

	// TripIDs restricts the corpus; empty means every stored trip.
	TripIDs []string

	// RunID resumes an earlier run from its checkpoints. Empty starts a new run.
	RunID string

	// ReportDir receives the report files; empty skips reporting.
	ReportDir string

	// OnEvent receives phase and round progress.
	OnEvent func(Event)

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.TripStore == nil || opts.RunStore == nil || opts.MotifStore == nil || opts.ClusterStore == nil {
		return nil, ErrMissingStore
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:             cfg,
		tripStore:       opts.TripStore,
		runStore:        opts.RunStore,
		motifStore:      opts.MotifStore,
		clusterStore:    opts.ClusterStore,
		checkpointStore: opts.CheckpointStore,
		publisher:       opts.Publisher,
		tripIDs:         opts.TripIDs,
		runID:           opts.RunID,
		reportDir:       opts.ReportDir,
		onEvent:         opts.OnEvent,
		tracer:          observability.Tracer("trip-motif-lab/orchestrator"),
		now:             time.Now,
		verbose:         opts.Verbose,
	}, nil
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Run       *domain.Run
	Rounds    []motif.RoundStats
	Motifs    []domain.Motif
	Pruned    []domain.Motif
	Clusters  []domain.Cluster
	Summaries []domain.ClusterSummary
	Reports   []string
}

// state carries intermediate results between phases.
type state struct {
	run    *domain.Run
	trips  []*domain.Trip
	radius float64
	result RunResult

	described bool
}

// Run executes the full E2E pipeline.
// Phases:
//  1. Load trips
//  2. Resolve the radius (configured or estimated)
//  3. Extract motifs
//  4. Describe motifs
//  5. Prune redundant motifs
//  6. Cluster motifs and summarize clusters
//  7. Persist results
//  8. Publish results
//  9. Write reports
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	run, err := o.startRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	observability.RunStarted()
	defer observability.RunFinished()

	ctx, span := o.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("run.id", run.RunID)))
	defer span.End()

	s := &state{run: run}
	phases := []struct {
		name string
		fn   func(context.Context, *state) error
	}{
		{"load trips", o.loadTrips},
		{"radius", o.resolveRadius},
		{"extract", o.extract},
		{"describe", o.describe},
		{"prune", o.prune},
		{"cluster", o.cluster},
		{"persist", o.persist},
		{"publish", o.publish},
		{"report", o.report},
	}

	for i, p := range phases {
		if err := o.phase(ctx, s, i+1, p.name, p.fn); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.fail(ctx, s.run, err)
			return nil, err
		}
	}

	run.Status = domain.RunStatusComplete
	run.FinishedAt = o.now().UnixMilli()
	if err := o.runStore.Finish(ctx, run); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	observability.RecordPipelineSuccess(o.now().Unix())
	o.emit(Event{RunID: run.RunID, Status: EventRunCompleted})

	o.log("Pipeline completed: %d trips, %d rounds, %d motifs, %d pruned, %d clusters",
		run.Counts.Trips, run.Counts.Rounds, run.Counts.Motifs, run.Counts.Pruned, run.Counts.Clusters)

	s.result.Run = run
	return &s.result, nil
}

// startRun inserts a new run record, or reloads the run being resumed.
func (o *Orchestrator) startRun(ctx context.Context) (*domain.Run, error) {
	if o.runID != "" {
		run, err := o.runStore.GetByID(ctx, o.runID)
		if err == nil {
			o.log("Resuming run %s", run.RunID)
			run.Status = domain.RunStatusRunning
			run.Error = ""
			return run, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	started := o.now().UnixMilli()
	configJSON := o.cfg.JSON()
	runID := o.runID
	if runID == "" {
		runID = idhash.ComputeRunID(started, configJSON)
	}

	run := &domain.Run{
		RunID:      runID,
		Status:     domain.RunStatusRunning,
		ConfigJSON: configJSON,
		StartedAt:  started,
	}
	if err := o.runStore.Insert(ctx, run); err != nil {
		return nil, err
	}
	o.log("Started run %s", runID)
	return run, nil
}

// fail records a failed run. ctx may already be done.
func (o *Orchestrator) fail(ctx context.Context, run *domain.Run, cause error) {
	run.Status = domain.RunStatusFailed
	run.Error = cause.Error()
	run.FinishedAt = o.now().UnixMilli()

	if err := o.runStore.Finish(context.WithoutCancel(ctx), run); err != nil {
		o.log("Failed to record failure of run %s: %v", run.RunID, err)
	}
	o.emit(Event{RunID: run.RunID, Status: EventRunFailed, Error: cause.Error()})
}

// phase runs one named phase inside a span and records its outcome.
func (o *Orchestrator) phase(ctx context.Context, s *state, n int, name string, fn func(context.Context, *state) error) error {
	ctx, span := o.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("run.id", s.run.RunID),
		attribute.Int("phase", n),
	))
	defer span.End()

	o.log("Phase %d: %s...", n, name)
	o.emit(Event{RunID: s.run.RunID, Phase: name, Status: EventPhaseStarted})

	start := time.Now()
	err := fn(ctx, s)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordPipelineRun(name, "failed", elapsed)
		return fmt.Errorf("phase %d (%s) failed: %w", n, name, err)
	}

	observability.RecordPipelineRun(name, "success", elapsed)
	o.emit(Event{RunID: s.run.RunID, Phase: name, Status: EventPhaseCompleted})
	return nil
}

// saveCheckpoint stores a stage result when checkpointing is enabled.
func (o *Orchestrator) saveCheckpoint(ctx context.Context, runID, stage string, value any) error {
	if o.checkpointStore == nil {
		return nil
	}
	if err := o.checkpointStore.Save(ctx, runID, stage, value); err != nil {
		return fmt.Errorf("checkpoint %s: %w", stage, err)
	}
	return nil
}

// loadCheckpoint reports whether a stage result was restored into into.
func (o *Orchestrator) loadCheckpoint(ctx context.Context, runID, stage string, into any) (bool, error) {
	if o.checkpointStore == nil {
		return false, nil
	}
	err := o.checkpointStore.Load(ctx, runID, stage, into)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore %s: %w", stage, err)
	}
	o.log("  Restored %s from checkpoint", stage)
	return true, nil
}

func (o *Orchestrator) emit(e Event) {
	if o.onEvent == nil {
		return
	}
	if e.Time == 0 {
		e.Time = o.now().UnixMilli()
	}
	o.onEvent(e)
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
