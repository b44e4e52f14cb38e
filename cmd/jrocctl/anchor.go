// Copyright 2025 Certen Protocol

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jrochub/powerhouse/pkg/challenge"
	"github.com/jrochub/powerhouse/pkg/kvdb"
	"github.com/jrochub/powerhouse/pkg/ledger"
)

func cmdAnchor(args []string) error {
	fs := flag.NewFlagSet("anchor", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./data", "ledger data directory")
	network := fs.String("network", "jrocnet-devnet", "network identifier to stamp on the anchor document")
	nodeID := fs.String("node-id", "jrocctl", "node identifier to stamp on the anchor document")
	quorum := fs.Int("quorum", 2, "quorum threshold to stamp on the anchor document")
	fieldPrime := fs.Uint64("field-prime", defaultFieldPrime, "prime modulus used to label the challenge mode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kv, err := kvdb.Open("ledger", *dataDir)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer kv.Close()
	led, err := ledger.NewLedger(kv)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	snap := led.Snapshot()
	doc := ledger.AnchorDocument{
		Schema:        ledger.AnchorSchema,
		Network:       *network,
		NodeID:        *nodeID,
		ChallengeMode: string(challenge.ModeFor(*fieldPrime)),
		FoldDigest:    fmt.Sprintf("%x", led.FoldDigest()),
		Entries:       snap.Entries,
		Quorum:        *quorum,
		CrateVersion:  "jroc-0.1",
		TimestampMs:   time.Now().UnixMilli(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
