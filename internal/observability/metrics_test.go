package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRound(t *testing.T) {
	rounds := testutil.ToFloat64(DefaultMetrics.RoundsTotal)
	motifs := testutil.ToFloat64(DefaultMetrics.MotifsFound)
	pairs := testutil.ToFloat64(DefaultMetrics.DTWPairsTotal)

	RecordRound(120, 7, 3, 45, 0.25)

	assert.Equal(t, rounds+1, testutil.ToFloat64(DefaultMetrics.RoundsTotal))
	assert.Equal(t, motifs+3, testutil.ToFloat64(DefaultMetrics.MotifsFound))
	assert.Equal(t, pairs+45, testutil.ToFloat64(DefaultMetrics.DTWPairsTotal))
	assert.Equal(t, 120.0, testutil.ToFloat64(DefaultMetrics.WordsPerRound))
	assert.Equal(t, 7.0, testutil.ToFloat64(DefaultMetrics.PatternsPerRound))
}

func TestRecordDBQuery(t *testing.T) {
	errs := DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "insert_motifs")
	before := testutil.ToFloat64(errs)

	RecordDBQuery("postgres", "insert_motifs", 0.01, nil)
	assert.Equal(t, before, testutil.ToFloat64(errs))

	RecordDBQuery("postgres", "insert_motifs", 0.01, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(errs))
}

func TestActiveRuns(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ActiveRuns)
	RunStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ActiveRuns))
	RunFinished()
	assert.Equal(t, before, testutil.ToFloat64(DefaultMetrics.ActiveRuns))
}

func TestHandler(t *testing.T) {
	RecordPublished("tripmd.motifs")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "trip_motif_lab_discovery_rounds_total"))
	assert.True(t, strings.Contains(body, `trip_motif_lab_queue_messages_published_total{subject="tripmd.motifs"}`))
}

func TestInitTracing(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, "http://localhost:4318")
	require.NoError(t, err)

	_, span := Tracer("test").Start(ctx, "span")
	span.End()

	// Nothing listens on the endpoint; shutdown may report the failed export.
	shutdownCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
}
