// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/jrochub/powerhouse/pkg/migration"
)

func cmdMigrationSnapshot(args []string) error {
	fs := flag.NewFlagSet("migration-snapshot", flag.ExitOnError)
	registryPath := fs.String("registry", "", "path to a stake registry JSON file")
	height := fs.Uint64("height", 0, "snapshot height")
	out := fs.String("out", "", "write canonical snapshot JSON to this path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *registryPath == "" {
		return fmt.Errorf("-registry is required")
	}

	reg, err := loadStakeRegistry(*registryPath)
	if err != nil {
		return err
	}

	snap := migration.BuildSnapshot(*height, reg)
	body, err := snap.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("canonicalize snapshot: %w", err)
	}
	commitment, err := snap.Commitment()
	if err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	if *out != "" {
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			return fmt.Errorf("write snapshot file: %w", err)
		}
	} else {
		os.Stdout.Write(body)
		fmt.Println()
	}
	fmt.Fprintf(os.Stderr, "commitment: %x\nentries: %d\n", commitment, len(snap.Entries))
	return nil
}

// addressFromPubkey mirrors go-ethereum's PubkeyToAddress convention
// (keccak256 digest, low 20 bytes) since the claim tree's address column
// is consumed by an external ERC-20 settlement layer that expects
// Ethereum-style addresses.
func addressFromPubkey(pk [32]byte) [20]byte {
	var out [20]byte
	digest := gethcrypto.Keccak256(pk[:])
	copy(out[:], digest[len(digest)-20:])
	return out
}

func parseAmountMode(s string) (migration.AmountMode, error) {
	switch s {
	case "total", "":
		return migration.AmountTotal, nil
	case "balance":
		return migration.AmountBalance, nil
	case "stake":
		return migration.AmountStake, nil
	default:
		return 0, fmt.Errorf("unknown -mode %q (want total, balance, or stake)", s)
	}
}

type claimJSON struct {
	ClaimID string   `json:"claim_id"`
	Address string   `json:"address"`
	Amount  uint64   `json:"amount"`
	Proof   []string `json:"proof"`
}

type manifestJSON struct {
	Root   string      `json:"root"`
	Claims []claimJSON `json:"claims"`
}

func cmdClaimTree(args []string) error {
	fs := flag.NewFlagSet("claim-tree", flag.ExitOnError)
	registryPath := fs.String("registry", "", "path to a stake registry JSON file")
	height := fs.Uint64("height", 0, "snapshot height to rebuild and derive claims from")
	mode := fs.String("mode", "total", "amount mode: total, balance, or stake")
	out := fs.String("out", "", "write the claim manifest JSON to this path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *registryPath == "" {
		return fmt.Errorf("-registry is required")
	}

	reg, err := loadStakeRegistry(*registryPath)
	if err != nil {
		return err
	}
	amountMode, err := parseAmountMode(*mode)
	if err != nil {
		return err
	}

	snap := migration.BuildSnapshot(*height, reg)
	manifest, err := migration.BuildClaimTree(snap, amountMode, addressFromPubkey)
	if err != nil {
		return fmt.Errorf("build claim tree: %w", err)
	}

	claims := make([]claimJSON, len(manifest.Claims))
	for i, c := range manifest.Claims {
		proof := make([]string, len(c.Proof))
		for j, p := range c.Proof {
			proof[j] = hex.EncodeToString(p[:])
		}
		claims[i] = claimJSON{
			ClaimID: hex.EncodeToString(c.ClaimID[:]),
			Address: hex.EncodeToString(c.Address[:]),
			Amount:  c.Amount,
			Proof:   proof,
		}
	}
	mj := manifestJSON{Root: hex.EncodeToString(manifest.Root[:]), Claims: claims}

	body, err := json.MarshalIndent(mj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if *out != "" {
		if err := os.WriteFile(*out, body, 0o644); err != nil {
			return fmt.Errorf("write manifest file: %w", err)
		}
	} else {
		os.Stdout.Write(body)
		fmt.Println()
	}
	return nil
}

func cmdBurnExecute(args []string) error {
	fs := flag.NewFlagSet("burn-execute", flag.ExitOnError)
	registryPath := fs.String("registry", "", "path to a stake registry JSON file (rewritten in place after draining)")
	outboxPath := fs.String("outbox", "", "path to the burn-intent outbox file")
	statePath := fs.String("state", "", "path to a persisted executor state file (created if missing)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *registryPath == "" || *outboxPath == "" || *statePath == "" {
		return fmt.Errorf("-registry, -outbox, and -state are all required")
	}

	reg, err := loadStakeRegistry(*registryPath)
	if err != nil {
		return err
	}

	var state migration.ExecutorState
	if raw, err := os.ReadFile(*statePath); err == nil {
		if err := json.Unmarshal(raw, &state); err != nil {
			return fmt.Errorf("parse executor state: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read executor state: %w", err)
	}

	executor, err := migration.NewExecutor(reg, state)
	if err != nil {
		return fmt.Errorf("build executor: %w", err)
	}

	outboxFile, err := os.Open(*outboxPath)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	defer outboxFile.Close()

	newState, err := executor.Run(outboxFile)
	if err != nil {
		return fmt.Errorf("drain outbox: %w", err)
	}

	stateBody, err := json.MarshalIndent(newState, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor state: %w", err)
	}
	if err := os.WriteFile(*statePath, stateBody, 0o644); err != nil {
		return fmt.Errorf("write executor state: %w", err)
	}

	registryFromFile, err := os.ReadFile(*registryPath)
	if err != nil {
		return fmt.Errorf("re-read registry for bond threshold: %w", err)
	}
	var rf registryFile
	if err := json.Unmarshal(registryFromFile, &rf); err != nil {
		return fmt.Errorf("re-parse registry: %w", err)
	}
	if err := saveStakeRegistry(*registryPath, rf.BondThreshold, reg); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}

	fmt.Fprintf(os.Stderr, "cursor=%d processed_hash=%s\n", newState.Cursor, newState.ProcessedHash)
	return nil
}
