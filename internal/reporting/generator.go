// Package reporting renders run results as Markdown and CSV files.
package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trip-motif-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	runStore     storage.RunStore
	motifStore   storage.MotifStore
	clusterStore storage.ClusterStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	runStore storage.RunStore,
	motifStore storage.MotifStore,
	clusterStore storage.ClusterStore,
) *Generator {
	return &Generator{
		runStore:     runStore,
		motifStore:   motifStore,
		clusterStore: clusterStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads a run and its results.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	motifs, err := g.motifStore.GetByRun(ctx, runID, false)
	if err != nil {
		return nil, fmt.Errorf("load motifs: %w", err)
	}

	pruned, err := g.motifStore.GetByRun(ctx, runID, true)
	if err != nil {
		return nil, fmt.Errorf("load pruned motifs: %w", err)
	}

	clusters, summaries, err := g.clusterStore.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load clusters: %w", err)
	}

	return &Report{
		GeneratedAt: g.now(),
		Run:         *run,
		Motifs:      motifs,
		Pruned:      pruned,
		Clusters:    clusters,
		Summaries:   summaries,
	}, nil
}

// WriteFiles renders r into dir and returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{MarkdownFile, RenderMarkdown(r)},
		{MotifsCSVFile, RenderMotifsCSV(r.Motifs)},
		{PrunedMotifsCSVFile, RenderMotifsCSV(r.Pruned)},
		{ClustersCSVFile, RenderClustersCSV(r.Summaries)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
