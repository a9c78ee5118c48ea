// Package main provides the HTTP server that starts pipeline runs and serves
// their results:
// - POST /runs starts a run over the stored corpus
// - GET /runs/{id}, /runs/{id}/motifs, /runs/{id}/clusters serve results
// - /ws streams run progress, /metrics and /health for operations
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trip-motif-lab/internal/config"
	"trip-motif-lab/internal/loader"
	"trip-motif-lab/internal/observability"
	natsq "trip-motif-lab/internal/queue/nats"
	badgerstore "trip-motif-lab/internal/storage/badger"
	chstore "trip-motif-lab/internal/storage/clickhouse"
	"trip-motif-lab/internal/storage/memory"
	"trip-motif-lab/internal/storage/migrations"
	pgstore "trip-motif-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("TRIPMD_ADDR", ":8080"), "HTTP listen address")
	configPath := flag.String("config", os.Getenv("TRIPMD_CONFIG"), "JSON config file used when a request carries none")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	input := flag.String("input", "", "CSV or Parquet trip file loaded into memory (with --use-memory)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and ClickHouse")
	checkpointDir := flag.String("checkpoint-dir", os.Getenv("TRIPMD_CHECKPOINT_DIR"), "Badger directory for stage checkpoints")
	natsURL := flag.String("nats-url", os.Getenv("NATS_URL"), "NATS server URL (empty to disable publishing)")
	outputDir := flag.String("output-dir", os.Getenv("TRIPMD_OUTPUT_DIR"), "Report root directory (empty to disable reports)")
	otlpEndpoint := flag.String("otlp", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), "OTLP HTTP endpoint (empty to disable tracing)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("component", "server"))
	fatal := func(msg string, err error) {
		logger.Error(msg, slog.Any("error", err))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config", err)
	}
	cfg.ApplyEnv()

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		fatal("missing storage", errors.New("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *otlpEndpoint != "" {
		tp, err := observability.InitTracing(ctx, *otlpEndpoint)
		if err != nil {
			fatal("init tracing", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tp.Shutdown(shutdownCtx)
		}()
	}

	server := &Server{
		cfg:       cfg,
		outputDir: *outputDir,
		hub:       NewHub(logger),
		logger:    logger,
		ctx:       ctx,
		now:       time.Now,
	}
	defer server.hub.Close()

	cleanup, err := createStores(ctx, server, *postgresDSN, *clickhouseDSN, *input, *useMemory)
	if err != nil {
		fatal("create stores", err)
	}
	defer cleanup()

	if *checkpointDir != "" {
		cp, err := badgerstore.Open(*checkpointDir)
		if err != nil {
			fatal("open checkpoints", err)
		}
		defer cp.Close()
		server.checkpoints = cp
	} else if *useMemory {
		server.checkpoints = memory.NewCheckpointStore()
	}

	if *natsURL != "" {
		natsCfg := natsq.DefaultConfig()
		natsCfg.URL = *natsURL
		client, err := natsq.NewClient(natsCfg)
		if err != nil {
			fatal("connect nats", err)
		}
		defer client.Close()
		if err := client.CreateStream(ctx, natsq.Subjects); err != nil {
			fatal("create stream", err)
		}
		server.publisher = natsq.NewPublisher(client)
		server.broker = client
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("addr", *addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("http server", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", slog.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}

	// Running pipelines record themselves as failed once cancelled.
	cancel()
	server.Wait()
	logger.Info("shutdown complete")
}

// createStores wires the trip and result stores into s.
func createStores(ctx context.Context, s *Server, postgresDSN, clickhouseDSN, input string, useMemory bool) (func(), error) {
	if useMemory {
		trips := memory.NewTripStore()
		if input != "" {
			reader, err := loader.NewReader()
			if err != nil {
				return nil, err
			}
			loaded, err := reader.Load(ctx, input, loader.Options{TripIDField: "trip_id", TimestampField: "timestamp"})
			reader.Close()
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", input, err)
			}
			if err := trips.InsertBulk(ctx, loaded); err != nil {
				return nil, err
			}
			s.logger.Info("loaded trips", slog.String("input", input), slog.Int("trips", len(loaded)))
		}

		s.trips = trips
		s.runs = memory.NewRunStore()
		s.motifs = memory.NewMotifStore()
		s.clusters = memory.NewClusterStore()
		return func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse
	chConn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	s.trips = chstore.NewTripStore(chConn)
	s.runs = pgstore.NewRunStore(pool)
	s.motifs = pgstore.NewMotifStore(pool)
	s.clusters = pgstore.NewClusterStore(pool)

	return func() {
		chConn.Close()
		pool.Close()
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
