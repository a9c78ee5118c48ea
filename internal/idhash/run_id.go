package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(started_at|config_json)
// Returns the base58-encoded first 16 bytes of the hash.
func ComputeRunID(startedAt int64, configJSON []byte) string {
	data := fmt.Sprintf("%d|%s", startedAt, configJSON)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}

// Decode returns the raw hash bytes of an ID produced by this package.
func Decode(id string) ([]byte, error) {
	b, err := base58.Decode(id)
	if err != nil {
		return nil, fmt.Errorf("decode id %q: %w", id, err)
	}
	return b, nil
}
