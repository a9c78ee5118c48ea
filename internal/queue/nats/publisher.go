package nats

import (
	"context"
	"fmt"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/observability"
)

// sender is the publishing side of Client.
type sender interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Publisher sends run results as JSON messages.
type Publisher struct {
	client sender
}

// NewPublisher creates a publisher on top of client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishRun announces a finished run.
func (p *Publisher) PublishRun(ctx context.Context, run *domain.Run) error {
	return p.send(ctx, SubjectRuns, RunMsg{Run: run})
}

// PublishMotifs sends one motif set of a run.
func (p *Publisher) PublishMotifs(ctx context.Context, runID string, motifs []domain.Motif, pruned bool) error {
	subject := SubjectMotifs
	if pruned {
		subject = SubjectPrunedMotifs
	}
	return p.send(ctx, subject, MotifBatchMsg{RunID: runID, Pruned: pruned, Motifs: motifs})
}

// PublishClusters sends the clusters of a run with their summaries.
func (p *Publisher) PublishClusters(ctx context.Context, runID string, clusters []domain.Cluster, summaries []domain.ClusterSummary) error {
	return p.send(ctx, SubjectClusters, ClusterBatchMsg{RunID: runID, Clusters: clusters, Summaries: summaries})
}

func (p *Publisher) send(ctx context.Context, subject string, msg any) error {
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", subject, err)
	}
	if err := p.client.Publish(ctx, subject, data); err != nil {
		return err
	}
	observability.RecordPublished(subject)
	return nil
}
