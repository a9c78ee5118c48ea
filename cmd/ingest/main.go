// Package main copies a CSV or Parquet trip corpus into the ClickHouse trip store.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"trip-motif-lab/internal/domain"
	"trip-motif-lab/internal/loader"
	chstore "trip-motif-lab/internal/storage/clickhouse"
	"trip-motif-lab/internal/storage/migrations"
)

func main() {
	// Parse flags
	input := flag.String("input", "", "CSV or Parquet trip file")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	tripIDField := flag.String("trip-id-field", "trip_id", "Trip ID column")
	timestampField := flag.String("timestamp-field", "timestamp", "Timestamp column (empty for sample order)")
	labelFields := flag.String("label-fields", "", "Comma-separated label columns")
	excludeFields := flag.String("exclude-fields", "", "Comma-separated columns to ignore")
	batchSize := flag.Int("batch-size", 100, "Trips per insert batch")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	if *input == "" {
		logger.Fatal("--input is required")
	}
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required")
	}
	if *batchSize < 1 {
		logger.Fatal("--batch-size must be positive")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reader, err := loader.NewReader()
	if err != nil {
		logger.Fatalf("Failed to open DuckDB: %v", err)
	}
	defer reader.Close()

	trips, err := reader.Load(ctx, *input, loader.Options{
		TripIDField:    *tripIDField,
		TimestampField: *timestampField,
		LabelFields:    splitList(*labelFields),
		ExcludedFields: splitList(*excludeFields),
	})
	if err != nil {
		logger.Fatalf("Failed to load %s: %v", *input, err)
	}
	if err := domain.ValidateCorpus(trips); err != nil {
		logger.Fatalf("Invalid corpus: %v", err)
	}
	logger.Printf("Loaded %d trips with %d dimensions from %s", len(trips), trips[0].NumDims(), *input)

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Failed to migrate ClickHouse: %v", err)
	}
	defer conn.Close()

	store := chstore.NewTripStore(conn)
	samples := 0
	for start := 0; start < len(trips); start += *batchSize {
		end := min(start+*batchSize, len(trips))
		if err := store.InsertBulk(ctx, trips[start:end]); err != nil {
			logger.Fatalf("Failed to insert trips %d..%d: %v", start, end-1, err)
		}
		for _, t := range trips[start:end] {
			samples += t.Len()
		}
		logger.Printf("Inserted %d/%d trips", end, len(trips))
	}

	logger.Printf("Ingest complete: %d trips, %d samples", len(trips), samples)
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
