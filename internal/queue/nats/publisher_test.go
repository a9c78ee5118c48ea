package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-motif-lab/internal/domain"
)

type sent struct {
	subject string
	data    []byte
}

type fakeSender struct {
	msgs []sent
	err  error
}

func (f *fakeSender) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, sent{subject: subject, data: data})
	return nil
}

func TestPublisher_PublishMotifs(t *testing.T) {
	fake := &fakeSender{}
	p := &Publisher{client: fake}
	ctx := context.Background()

	motifs := []domain.Motif{{ID: "m1", Pattern: domain.Pattern{"ab"}, WordLength: 2}}
	require.NoError(t, p.PublishMotifs(ctx, "run-1", motifs, false))
	require.NoError(t, p.PublishMotifs(ctx, "run-1", motifs, true))

	require.Len(t, fake.msgs, 2)
	assert.Equal(t, SubjectMotifs, fake.msgs[0].subject)
	assert.Equal(t, SubjectPrunedMotifs, fake.msgs[1].subject)

	msg, err := DecodeMotifBatch(fake.msgs[1].data)
	require.NoError(t, err)
	assert.Equal(t, "run-1", msg.RunID)
	assert.True(t, msg.Pruned)
	assert.Equal(t, motifs, msg.Motifs)
}

func TestPublisher_PublishClustersAndRun(t *testing.T) {
	fake := &fakeSender{}
	p := &Publisher{client: fake}
	ctx := context.Background()

	clusters := []domain.Cluster{{Index: 0, Representative: [][]float64{{1, 2}}, MotifIDs: []string{"m1"}}}
	summaries := []domain.ClusterSummary{{ClusterIndex: 0, NMembers: 1}}
	require.NoError(t, p.PublishClusters(ctx, "run-1", clusters, summaries))
	require.NoError(t, p.PublishRun(ctx, &domain.Run{RunID: "run-1", Status: domain.RunStatusComplete}))

	require.Len(t, fake.msgs, 2)
	batch, err := DecodeClusterBatch(fake.msgs[0].data)
	require.NoError(t, err)
	assert.Equal(t, clusters, batch.Clusters)
	assert.Equal(t, 1, batch.Summaries[0].NMembers)

	run, err := DecodeRun(fake.msgs[1].data)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusComplete, run.Run.Status)
}

func TestPublisher_Error(t *testing.T) {
	boom := errors.New("no responders")
	p := &Publisher{client: &fakeSender{err: boom}}

	err := p.PublishRun(context.Background(), &domain.Run{RunID: "r"})
	assert.ErrorIs(t, err, boom)
}
