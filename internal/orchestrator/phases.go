package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trip-motif-lab/internal/cluster"
	"trip-motif-lab/internal/describe"
	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/mdl"
	"trip-motif-lab/internal/motif"
	"trip-motif-lab/internal/observability"
	"trip-motif-lab/internal/reporting"
	"trip-motif-lab/internal/storage"
	"trip-motif-lab/internal/vsax"
)

// extraction is the checkpointed result of the extract phase.
type extraction struct {
	Motifs []domain.Motif
	Rounds []motif.RoundStats
}

// prunedSet is the checkpointed result of the prune phase.
type prunedSet struct {
	Motifs []domain.Motif
}

// clusterSet is the checkpointed result of the cluster phase.
type clusterSet struct {
	Clusters []domain.Cluster
}

// summarySet is the checkpointed cluster summary.
type summarySet struct {
	Summaries []domain.ClusterSummary
}

// radiusValue is the checkpointed radius.
type radiusValue struct {
	Radius float64
}

// loadTrips reads the corpus from the trip store.
func (o *Orchestrator) loadTrips(ctx context.Context, s *state) error {
	var trips []*domain.Trip
	if len(o.tripIDs) == 0 {
		all, err := o.tripStore.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("get trips: %w", err)
		}
		trips = all
	} else {
		trips = make([]*domain.Trip, 0, len(o.tripIDs))
		for _, id := range o.tripIDs {
			t, err := o.tripStore.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("get trip %s: %w", id, err)
			}
			trips = append(trips, t)
		}
	}

	if err := domain.ValidateCorpus(trips); err != nil {
		return err
	}

	s.trips = trips
	s.run.Counts.Trips = len(trips)
	o.log("  Loaded %d trips with %d dimensions", len(trips), trips[0].NumDims())
	return nil
}

// resolveRadius uses the configured radius, a checkpoint, or an estimate.
func (o *Orchestrator) resolveRadius(ctx context.Context, s *state) error {
	if o.cfg.RadiusThreshold != nil {
		s.radius = *o.cfg.RadiusThreshold
		s.run.Radius = s.radius
		o.log("  Using configured radius %.6f", s.radius)
		return nil
	}

	var saved radiusValue
	ok, err := o.loadCheckpoint(ctx, s.run.RunID, storage.StageRadius, &saved)
	if err != nil {
		return err
	}
	if ok {
		s.radius = saved.Radius
		s.run.Radius = s.radius
		return nil
	}

	radius, err := motif.EstimateRadius(ctx, s.trips, motif.RadiusOptions{
		WindowLength: o.cfg.RadiusSampleWindow(),
		SampleSize:   o.cfg.RadiusSampleSize,
		Percentile:   o.cfg.RadiusPercentile,
		Seed:         o.cfg.RadiusSeed,
		Workers:      o.cfg.Workers,
	})
	if err != nil {
		return fmt.Errorf("estimate radius: %w", err)
	}
	o.log("  Estimated radius %.6f (p%.1f of %d windows)", radius, o.cfg.RadiusPercentile, o.cfg.RadiusSampleSize)

	s.radius = radius
	s.run.Radius = radius
	return o.saveCheckpoint(ctx, s.run.RunID, storage.StageRadius, radiusValue{Radius: radius})
}

// extract runs the motif finder.
func (o *Orchestrator) extract(ctx context.Context, s *state) error {
	var saved extraction
	ok, err := o.loadCheckpoint(ctx, s.run.RunID, storage.StageMotifs, &saved)
	if err != nil {
		return err
	}
	if ok {
		s.result.Motifs = saved.Motifs
		s.result.Rounds = saved.Rounds
		s.run.Counts.Motifs = len(saved.Motifs)
		s.run.Counts.Rounds = len(saved.Rounds)
		return nil
	}

	finder, err := motif.NewFinder(motif.Options{
		LetterLength:     o.cfg.LetterWindowLength,
		MinPatternLength: o.cfg.MinPatternLength,
		Radius:           s.radius,
		ComputeMDL:       o.cfg.ComputeMDL,
		Workers:          o.cfg.Workers,
		OnRound:          o.onRound(s.run.RunID),
	})
	if err != nil {
		return err
	}

	res, err := finder.Find(ctx, s.trips)
	if err != nil {
		return err
	}

	s.result.Motifs = res.Motifs
	s.result.Rounds = res.Rounds
	s.run.Counts.Motifs = len(res.Motifs)
	s.run.Counts.Rounds = len(res.Rounds)
	o.log("  Found %d motifs in %d rounds", len(res.Motifs), len(res.Rounds))

	return o.saveCheckpoint(ctx, s.run.RunID, storage.StageMotifs, extraction{
		Motifs: res.Motifs,
		Rounds: res.Rounds,
	})
}

func (o *Orchestrator) onRound(runID string) func(motif.RoundStats) {
	return func(r motif.RoundStats) {
		o.log("  Round W=%d: %d words, %d patterns, %d repeated, %d motifs (%s)",
			r.WordLength, r.Words, r.Patterns, r.RepeatedPatterns, r.Motifs, r.Duration.Round(time.Millisecond))
		observability.RecordRound(r.Words, r.RepeatedPatterns, r.Motifs, r.DTWPairs, r.Duration.Seconds())

		round := r
		o.emit(Event{RunID: runID, Phase: "extract", Status: EventRound, Round: &round})
	}
}

// describe attaches maneuver descriptions when both axes are configured.
func (o *Orchestrator) describe(_ context.Context, s *state) error {
	if !o.cfg.HasAxes() {
		o.log("  Skipped: axis indices not configured")
		return nil
	}

	lat, lon, err := o.cfg.RequireAxes(s.trips[0].NumDims())
	if err != nil {
		return err
	}
	d, err := describe.New(lat, lon, s.trips[0].NumDims())
	if err != nil {
		return err
	}

	described, err := d.Motifs(s.result.Motifs)
	if err != nil {
		return err
	}
	s.result.Motifs = described
	s.described = true
	return nil
}

// prune selects the mutually distant, low-cost subset of motifs.
func (o *Orchestrator) prune(ctx context.Context, s *state) error {
	if !o.cfg.ComputeMDL {
		o.log("  Skipped: MDL disabled")
		return nil
	}

	var saved prunedSet
	ok, err := o.loadCheckpoint(ctx, s.run.RunID, storage.StagePrunedMotifs, &saved)
	if err != nil {
		return err
	}
	if !ok {
		pruned, err := mdl.Prune(ctx, s.result.Motifs, o.observer(s), mdl.PruneOptions{
			Radius:  s.radius,
			Workers: o.cfg.Workers,
		})
		if err != nil {
			return err
		}
		saved.Motifs = pruned
		if err := o.saveCheckpoint(ctx, s.run.RunID, storage.StagePrunedMotifs, saved); err != nil {
			return err
		}
	}

	// Pruning keeps the input motifs, so descriptions carry over on resume as well.
	if s.described {
		byID := make(map[string]domain.Motif, len(s.result.Motifs))
		for _, m := range s.result.Motifs {
			byID[m.ID] = m
		}
		for i, m := range saved.Motifs {
			if full, ok := byID[m.ID]; ok {
				saved.Motifs[i].Description = full.Description
			}
		}
	}

	s.result.Pruned = saved.Motifs
	s.run.Counts.Pruned = len(saved.Motifs)
	observability.RecordPruned(len(saved.Motifs))
	o.log("  Kept %d of %d motifs", len(saved.Motifs), len(s.result.Motifs))
	return nil
}

func (o *Orchestrator) observer(s *state) mdl.Observer {
	return func(w domain.Word) ([][]float64, error) {
		return vsax.Observation(s.trips, w, o.cfg.LetterWindowLength)
	}
}

// cluster trains the map on all motif centers, anchored on the pruned set.
func (o *Orchestrator) cluster(ctx context.Context, s *state) error {
	if len(s.result.Motifs) == 0 {
		o.log("  Skipped: no motifs")
		return nil
	}

	var clusters clusterSet
	ok, err := o.loadCheckpoint(ctx, s.run.RunID, storage.StageClusters, &clusters)
	if err != nil {
		return err
	}
	if !ok {
		centers, err := o.centers(s, s.result.Motifs)
		if err != nil {
			return err
		}

		anchorMotifs := s.result.Pruned
		if len(anchorMotifs) == 0 {
			anchorMotifs = s.result.Motifs
		}
		anchors, err := o.centers(s, anchorMotifs)
		if err != nil {
			return err
		}

		clusters.Clusters, err = cluster.Fit(ctx, s.result.Motifs, centers, anchors, cluster.Options{
			Epochs:  o.cfg.ClusterEpochs,
			Window:  o.cfg.ClusterWindowSize(),
			Workers: o.cfg.Workers,
		})
		if err != nil {
			return err
		}
		if err := o.saveCheckpoint(ctx, s.run.RunID, storage.StageClusters, clusters); err != nil {
			return err
		}
	}

	summaries, err := o.summarize(ctx, s, clusters.Clusters)
	if err != nil {
		return err
	}

	nonEmpty := 0
	for _, c := range clusters.Clusters {
		if len(c.MotifIDs) > 0 {
			nonEmpty++
		}
	}

	s.result.Clusters = clusters.Clusters
	s.result.Summaries = summaries
	s.run.Counts.Clusters = nonEmpty
	observability.RecordClusters(nonEmpty)
	o.log("  %d motifs in %d of %d units", len(s.result.Motifs), nonEmpty, len(clusters.Clusters))
	return nil
}

// summarize computes maneuver shares per cluster, or member counts only
// when motifs carry no description.
func (o *Orchestrator) summarize(ctx context.Context, s *state, clusters []domain.Cluster) ([]domain.ClusterSummary, error) {
	var saved summarySet
	ok, err := o.loadCheckpoint(ctx, s.run.RunID, storage.StageClustersSummary, &saved)
	if err != nil {
		return nil, err
	}
	if ok {
		return saved.Summaries, nil
	}

	if s.described {
		saved.Summaries, err = cluster.Summarize(clusters, s.result.Motifs)
		if err != nil {
			return nil, err
		}
	} else {
		saved.Summaries = make([]domain.ClusterSummary, len(clusters))
		for i, c := range clusters {
			saved.Summaries[i] = domain.ClusterSummary{ClusterIndex: c.Index, NMembers: len(c.MotifIDs)}
		}
	}

	if err := o.saveCheckpoint(ctx, s.run.RunID, storage.StageClustersSummary, saved); err != nil {
		return nil, err
	}
	return saved.Summaries, nil
}

func (o *Orchestrator) centers(s *state, motifs []domain.Motif) ([][][]float64, error) {
	out := make([][][]float64, len(motifs))
	for i, m := range motifs {
		obs, err := vsax.Observation(s.trips, m.Center, o.cfg.LetterWindowLength)
		if err != nil {
			return nil, fmt.Errorf("center of motif %s: %w", m.ID, err)
		}
		out[i] = obs
	}
	return out, nil
}

// persist writes motifs and clusters to the result stores. Sets already
// stored by an earlier attempt of a resumed run are kept.
func (o *Orchestrator) persist(ctx context.Context, s *state) error {
	runID := s.run.RunID

	if err := o.store("postgres", "insert_motifs", func() error {
		return o.motifStore.InsertBulk(ctx, runID, s.result.Motifs, false)
	}); err != nil {
		return fmt.Errorf("insert motifs: %w", err)
	}

	if s.result.Pruned != nil {
		if err := o.store("postgres", "insert_pruned_motifs", func() error {
			return o.motifStore.InsertBulk(ctx, runID, s.result.Pruned, true)
		}); err != nil {
			return fmt.Errorf("insert pruned motifs: %w", err)
		}
	}

	if len(s.result.Clusters) > 0 {
		if err := o.store("postgres", "insert_clusters", func() error {
			return o.clusterStore.InsertBulk(ctx, runID, s.result.Clusters, s.result.Summaries)
		}); err != nil {
			return fmt.Errorf("insert clusters: %w", err)
		}
	}

	o.log("  Stored %d motifs, %d pruned, %d clusters", len(s.result.Motifs), len(s.result.Pruned), len(s.result.Clusters))
	return nil
}

func (o *Orchestrator) store(database, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.log("  %s already stored", operation)
		err = nil
	}
	observability.RecordDBQuery(database, operation, time.Since(start).Seconds(), err)
	return err
}

// publish sends the run results when a publisher is configured.
func (o *Orchestrator) publish(ctx context.Context, s *state) error {
	if o.publisher == nil {
		return nil
	}

	if err := o.publisher.PublishMotifs(ctx, s.run.RunID, s.result.Motifs, false); err != nil {
		return err
	}
	if s.result.Pruned != nil {
		if err := o.publisher.PublishMotifs(ctx, s.run.RunID, s.result.Pruned, true); err != nil {
			return err
		}
	}
	if len(s.result.Clusters) > 0 {
		if err := o.publisher.PublishClusters(ctx, s.run.RunID, s.result.Clusters, s.result.Summaries); err != nil {
			return err
		}
	}

	run := *s.run
	run.Status = domain.RunStatusComplete
	return o.publisher.PublishRun(ctx, &run)
}

// report writes the report files when an output directory is configured.
func (o *Orchestrator) report(_ context.Context, s *state) error {
	if o.reportDir == "" {
		return nil
	}

	run := *s.run
	run.Status = domain.RunStatusComplete
	r := &reporting.Report{
		GeneratedAt: o.now().UTC(),
		Run:         run,
		Motifs:      s.result.Motifs,
		Pruned:      s.result.Pruned,
		Clusters:    s.result.Clusters,
		Summaries:   s.result.Summaries,
	}

	files, err := reporting.WriteFiles(o.reportDir, r)
	if err != nil {
		return err
	}
	observability.RecordReport()
	s.result.Reports = files
	o.log("  Wrote %d report files to %s", len(files), o.reportDir)
	return nil
}
