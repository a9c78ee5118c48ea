// Package main provides the batch pipeline entry point.
// Executes: load → radius → extract → describe → prune → cluster → persist → publish → report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trip-motif-lab/internal/config"
	"trip-motif-lab/internal/loader"
	"trip-motif-lab/internal/observability"
	"trip-motif-lab/internal/orchestrator"
	natsq "trip-motif-lab/internal/queue/nats"
	"trip-motif-lab/internal/storage"
	badgerstore "trip-motif-lab/internal/storage/badger"
	chstore "trip-motif-lab/internal/storage/clickhouse"
	"trip-motif-lab/internal/storage/memory"
	"trip-motif-lab/internal/storage/migrations"
	pgstore "trip-motif-lab/internal/storage/postgres"
)

func main() {
	// Parse flags (env vars as defaults)
	configPath := flag.String("config", os.Getenv("TRIPMD_CONFIG"), "JSON config file (defaults when empty)")
	input := flag.String("input", "", "CSV or Parquet trip file")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for the stored corpus")
	trips := flag.String("trips", "", "Comma-separated trip IDs (all stored trips when empty)")
	tripIDField := flag.String("trip-id-field", "trip_id", "Trip ID column")
	timestampField := flag.String("timestamp-field", "timestamp", "Timestamp column (empty for sample order)")
	labelFields := flag.String("label-fields", "", "Comma-separated label columns")
	excludeFields := flag.String("exclude-fields", "", "Comma-separated columns to ignore")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory result stores instead of PostgreSQL")
	checkpointDir := flag.String("checkpoint-dir", os.Getenv("TRIPMD_CHECKPOINT_DIR"), "Badger directory for stage checkpoints")
	resume := flag.String("resume", "", "Run ID to resume from its checkpoints")
	natsURL := flag.String("nats-url", os.Getenv("NATS_URL"), "NATS server URL (empty to disable publishing)")
	outputDir := flag.String("output-dir", "", "Output directory for reports (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	otlpEndpoint := flag.String("otlp", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP HTTP endpoint (empty to disable tracing)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[pipeline] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling pipeline...", sig)
		cancel()
	}()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	if *otlpEndpoint != "" {
		tp, err := observability.InitTracing(ctx, *otlpEndpoint)
		if err != nil {
			logger.Fatalf("Failed to init tracing: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Printf("Tracer shutdown: %v", err)
			}
		}()
	}

	opts := orchestrator.Options{
		Config:    cfg,
		RunID:     *resume,
		ReportDir: cfg.OutputDir,
		Verbose:   *verbose,
	}

	// Trip corpus
	closeTrips, err := openTrips(ctx, &opts, *input, *clickhouseDSN, *trips, loader.Options{
		TripIDField:    *tripIDField,
		TimestampField: *timestampField,
		LabelFields:    splitList(*labelFields),
		ExcludedFields: splitList(*excludeFields),
	})
	if err != nil {
		logger.Fatalf("Failed to open trips: %v", err)
	}
	defer closeTrips()

	// Result stores
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	closeResults, err := openResultStores(ctx, &opts, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to open result stores: %v", err)
	}
	defer closeResults()

	// Checkpoints
	if *checkpointDir != "" {
		cp, err := badgerstore.Open(*checkpointDir)
		if err != nil {
			logger.Fatalf("Failed to open checkpoints: %v", err)
		}
		defer cp.Close()
		opts.CheckpointStore = cp

		if *resume != "" {
			stages, err := cp.Stages(*resume)
			if err != nil {
				logger.Fatalf("Failed to list checkpoints: %v", err)
			}
			logger.Printf("Resuming %s with checkpoints: %v", *resume, stages)
		}
	} else if *useMemory {
		opts.CheckpointStore = memory.NewCheckpointStore()
	}

	// Publishing
	if *natsURL != "" {
		natsCfg := natsq.DefaultConfig()
		natsCfg.URL = *natsURL
		client, err := natsq.NewClient(natsCfg)
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer client.Close()
		if err := client.CreateStream(ctx, natsq.Subjects); err != nil {
			logger.Fatalf("Failed to create stream: %v", err)
		}
		opts.Publisher = natsq.NewPublisher(client)
	}

	orch, err := orchestrator.New(opts)
	if err != nil {
		logger.Fatalf("Failed to create orchestrator: %v", err)
	}

	fmt.Println("=== Motif Pipeline ===")
	result, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Println("Pipeline cancelled")
			os.Exit(130)
		}
		logger.Fatalf("Pipeline error: %v", err)
	}

	run := result.Run
	fmt.Printf("Run %s completed:\n", run.RunID)
	fmt.Printf("  Trips: %d\n", run.Counts.Trips)
	fmt.Printf("  Radius: %.6f\n", run.Radius)
	fmt.Printf("  Rounds: %d\n", run.Counts.Rounds)
	fmt.Printf("  Motifs: %d\n", run.Counts.Motifs)
	fmt.Printf("  Pruned: %d\n", run.Counts.Pruned)
	fmt.Printf("  Clusters: %d\n", run.Counts.Clusters)
	for _, f := range result.Reports {
		fmt.Printf("  Generated: %s\n", f)
	}
}

// openTrips sets the trip store from a file or from ClickHouse.
func openTrips(ctx context.Context, opts *orchestrator.Options, input, clickhouseDSN, trips string, loadOpts loader.Options) (func(), error) {
	switch {
	case input != "":
		reader, err := loader.NewReader()
		if err != nil {
			return nil, err
		}
		defer reader.Close()

		loaded, err := reader.Load(ctx, input, loadOpts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", input, err)
		}
		store := memory.NewTripStore()
		if err := store.InsertBulk(ctx, loaded); err != nil {
			return nil, err
		}
		opts.TripStore = store
		opts.TripIDs = splitList(trips)
		return func() {}, nil

	case clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		opts.TripStore = chstore.NewTripStore(conn)
		opts.TripIDs = splitList(trips)
		return func() { conn.Close() }, nil

	default:
		return nil, errors.New("--input or --clickhouse-dsn is required")
	}
}

// openResultStores sets the run, motif and cluster stores.
func openResultStores(ctx context.Context, opts *orchestrator.Options, postgresDSN string, useMemory bool) (func(), error) {
	if useMemory {
		opts.RunStore = memory.NewRunStore()
		opts.MotifStore = memory.NewMotifStore()
		opts.ClusterStore = memory.NewClusterStore()
		return func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	var (
		runs     storage.RunStore     = pgstore.NewRunStore(pool)
		motifs   storage.MotifStore   = pgstore.NewMotifStore(pool)
		clusters storage.ClusterStore = pgstore.NewClusterStore(pool)
	)
	opts.RunStore = runs
	opts.MotifStore = motifs
	opts.ClusterStore = clusters
	return pool.Close, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
