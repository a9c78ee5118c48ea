package idhash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ComputeMotifID computes a deterministic motif_id using SHA256.
// Formula: SHA256(pattern|word_length|trip_index|start|end) of the center word.
// Returns the base58-encoded hash.
func ComputeMotifID(
	pattern []string,
	wordLength int,
	tripIndex int,
	start int,
	end int,
) string {
	data := fmt.Sprintf("%s|%d|%d|%d|%d",
		strings.Join(pattern, ","),
		wordLength,
		tripIndex,
		start,
		end,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
