// Package badger stores stage checkpoints in an embedded BadgerDB.
// Payloads are gob encoded and compressed with zstd before they are written.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"trip-motif-lab/internal/storage"
)

// CheckpointStore implements storage.CheckpointStore on BadgerDB.
type CheckpointStore struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Open opens (or creates) a checkpoint database under path.
func Open(path string) (*CheckpointStore, error) {
	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	return open(opts)
}

// OpenInMemory opens a checkpoint database that lives only in memory.
func OpenInMemory() (*CheckpointStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*CheckpointStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("checkpoint store failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("open badger: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	slog.Info("checkpoint store opened",
		slog.String("path", opts.Dir),
		slog.Bool("inMemory", opts.InMemory))

	return &CheckpointStore{db: db, encoder: encoder, decoder: decoder}, nil
}

// Save stores value for (runID, stage), replacing an earlier checkpoint.
func (s *CheckpointStore) Save(ctx context.Context, runID, stage string, value any) error {
	if runID == "" || stage == "" {
		return storage.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := storage.EncodeCheckpoint(value)
	if err != nil {
		return err
	}
	payload := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storage.CheckpointKey(runID, stage)), payload)
	})
	if err != nil {
		slog.Error("checkpoint store failed to save",
			slog.Any("error", err),
			slog.String("run", runID),
			slog.String("stage", stage))
		return fmt.Errorf("save checkpoint %s/%s: %w", runID, stage, err)
	}

	slog.Debug("checkpoint saved",
		slog.String("run", runID),
		slog.String("stage", stage),
		slog.Int("raw", len(raw)),
		slog.Int("compressed", len(payload)))
	return nil
}

// Load decodes the checkpoint of (runID, stage) into into.
// Returns ErrNotFound if no checkpoint has been saved yet.
func (s *CheckpointStore) Load(ctx context.Context, runID, stage string, into any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storage.CheckpointKey(runID, stage)))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load checkpoint %s/%s: %w", runID, stage, err)
	}

	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return fmt.Errorf("decompress checkpoint %s/%s: %w", runID, stage, err)
	}
	return storage.DecodeCheckpoint(raw, into)
}

// Stages lists the stages checkpointed for runID, in key order.
func (s *CheckpointStore) Stages(runID string) ([]string, error) {
	prefix := []byte(storage.CheckpointKey(runID, ""))

	var stages []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stages = append(stages, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list checkpoints of %s: %w", runID, err)
	}
	return stages, nil
}

// Close releases the compressor and closes the database.
func (s *CheckpointStore) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}
