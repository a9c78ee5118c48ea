package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"trip-motif-lab/internal/config"
	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/idhash"
	"trip-motif-lab/internal/observability"
	"trip-motif-lab/internal/orchestrator"
	"trip-motif-lab/internal/reporting"
	"trip-motif-lab/internal/storage"
)

// Server serves the run API and launches pipeline runs.
type Server struct {
	cfg       *config.Config
	outputDir string

	// Stores
	trips       storage.TripStore
	runs        storage.RunStore
	motifs      storage.MotifStore
	clusters    storage.ClusterStore
	checkpoints storage.CheckpointStore // optional

	publisher orchestrator.Publisher          // optional
	broker    interface{ IsConnected() bool } // optional
	hub       *Hub
	logger    *slog.Logger

	// Runs are bound to ctx, not to the request that started them.
	ctx context.Context
	wg  sync.WaitGroup
	now func() time.Time
}

// createRunRequest is the optional body of POST /runs.
type createRunRequest struct {
	Config  json.RawMessage `json:"config,omitempty"`
	TripIDs []string        `json:"trip_ids,omitempty"`
}

// runView renders the stored config as JSON instead of bytes.
type runView struct {
	*domain.Run
	Config json.RawMessage `json:"config"`
}

type clustersView struct {
	Clusters  []domain.Cluster        `json:"clusters"`
	Summaries []domain.ClusterSummary `json:"summaries"`
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.ServeWS)

	r.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost)
	r.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/motifs", s.handleGetMotifs).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/clusters", s.handleGetClusters).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/report", s.handleGetReport).Methods(http.MethodGet)

	return r
}

// Wait blocks until every launched run has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.broker != nil && !s.broker.IsConnected() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("nats disconnected"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	cfg := s.cfg
	if len(req.Config) > 0 {
		cfg, err = config.Parse(bytes.NewReader(req.Config))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	runID := idhash.ComputeRunID(s.now().UnixMilli(), cfg.JSON())
	opts := orchestrator.Options{
		Config:          cfg,
		TripStore:       s.trips,
		RunStore:        s.runs,
		MotifStore:      s.motifs,
		ClusterStore:    s.clusters,
		CheckpointStore: s.checkpoints,
		Publisher:       s.publisher,
		TripIDs:         req.TripIDs,
		RunID:           runID,
		OnEvent:         s.hub.Broadcast,
	}
	if s.outputDir != "" {
		opts.ReportDir = filepath.Join(s.outputDir, runID)
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := orch.Run(s.ctx); err != nil {
			s.logger.Error("run failed", slog.String("run_id", runID), slog.Any("error", err))
			return
		}
		s.logger.Info("run completed", slog.String("run_id", runID))
	}()

	s.logger.Info("run started", slog.String("run_id", runID), slog.Int("trips", len(req.TripIDs)))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"status": string(domain.RunStatusRunning),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]runView, len(runs))
	for i, run := range runs {
		views[i] = newRunView(run)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunView(run))
}

func (s *Server) handleGetMotifs(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	pruned := r.URL.Query().Get("pruned") == "true"
	motifs, err := s.motifs.GetByRun(r.Context(), run.RunID, pruned)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, motifs)
}

func (s *Server) handleGetClusters(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	clusters, summaries, err := s.clusters.GetByRun(r.Context(), run.RunID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, clustersView{Clusters: clusters, Summaries: summaries})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	gen := reporting.NewGenerator(s.runs, s.motifs, s.clusters)
	report, err := gen.Generate(r.Context(), run.RunID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, reporting.RenderMarkdown(report))
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*domain.Run, bool) {
	id := mux.Vars(r)["id"]
	run, err := s.runs.GetByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

func newRunView(run *domain.Run) runView {
	v := runView{Run: run, Config: json.RawMessage("null")}
	if json.Valid(run.ConfigJSON) {
		v.Config = run.ConfigJSON
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
