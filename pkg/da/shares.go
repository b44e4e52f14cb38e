// Copyright 2025 Certen Protocol

package da

import "fmt"

// DefaultShardSize is the share size used when a blob's submission does
// not specify one.
const DefaultShardSize = 256 * 1024

// DefaultMaxBlobBytes is the default cap on a single blob's raw payload.
const DefaultMaxBlobBytes = 5 * 1024 * 1024

// ErrBlobTooLarge is returned when a payload exceeds the configured cap.
type ErrBlobTooLarge struct {
	Size, Max int
}

func (e *ErrBlobTooLarge) Error() string {
	return fmt.Sprintf("da: blob has %d bytes, exceeds cap of %d", e.Size, e.Max)
}

// Split breaks payload into fixed-size shares of shardSize bytes, the
// final share holding the remainder. Splitting an empty payload yields
// a single empty share, so every blob has at least one share to commit
// to.
func Split(payload []byte, shardSize int) [][]byte {
	if shardSize <= 0 {
		shardSize = DefaultShardSize
	}
	if len(payload) == 0 {
		return [][]byte{{}}
	}

	shares := make([][]byte, 0, (len(payload)+shardSize-1)/shardSize)
	for i := 0; i < len(payload); i += shardSize {
		end := i + shardSize
		if end > len(payload) {
			end = len(payload)
		}
		share := make([]byte, end-i)
		copy(share, payload[i:end])
		shares = append(shares, share)
	}
	return shares
}

// Join reassembles shares back into the original payload, in order.
func Join(shares [][]byte) []byte {
	total := 0
	for _, s := range shares {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range shares {
		out = append(out, s...)
	}
	return out
}

// CheckSize enforces the configured blob size cap. maxBytes <= 0 falls
// back to DefaultMaxBlobBytes.
func CheckSize(payload []byte, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBlobBytes
	}
	if len(payload) > maxBytes {
		return &ErrBlobTooLarge{Size: len(payload), Max: maxBytes}
	}
	return nil
}
