package da

import (
	"bytes"
	"testing"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	payload := make([]byte, 2048)
	for i := range payload {
		payload[i] = byte(i)
	}
	shares := Split(payload, 512)
	if len(shares) != 4 {
		t.Fatalf("expected 4 shares, got %d", len(shares))
	}
	if !bytes.Equal(Join(shares), payload) {
		t.Fatalf("join did not reproduce the original payload")
	}
}

func TestSplitEmptyPayloadYieldsOneEmptyShare(t *testing.T) {
	shares := Split(nil, 512)
	if len(shares) != 1 || len(shares[0]) != 0 {
		t.Fatalf("expected exactly one empty share, got %v", shares)
	}
}

func TestSplitUsesDefaultShardSize(t *testing.T) {
	payload := make([]byte, DefaultShardSize+1)
	shares := Split(payload, 0)
	if len(shares) != 2 {
		t.Fatalf("expected 2 shares at default shard size, got %d", len(shares))
	}
}

func TestCheckSizeRejectsOversizedBlob(t *testing.T) {
	payload := make([]byte, 100)
	if err := CheckSize(payload, 50); err == nil {
		t.Fatalf("expected oversized blob to be rejected")
	}
	if err := CheckSize(payload, 0); err != nil {
		t.Fatalf("payload under DefaultMaxBlobBytes should pass: %v", err)
	}
}
