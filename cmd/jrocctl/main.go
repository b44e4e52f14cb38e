// Copyright 2025 Certen Protocol
//
// jrocctl is the operator CLI for the proof-transparent ledger:
// generating a node identity, proving and verifying sum-check
// transcripts, inspecting an anchor, and driving a migration snapshot
// through the claim tree and burn-intent journal.

package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate-identity":
		err = cmdGenerateIdentity(os.Args[2:])
	case "push-proof":
		err = cmdPushProof(os.Args[2:])
	case "verify-transcript":
		err = cmdVerifyTranscript(os.Args[2:])
	case "verify-anchor":
		err = cmdVerifyAnchor(os.Args[2:])
	case "anchor":
		err = cmdAnchor(os.Args[2:])
	case "migration-snapshot":
		err = cmdMigrationSnapshot(os.Args[2:])
	case "claim-tree":
		err = cmdClaimTree(os.Args[2:])
	case "burn-execute":
		err = cmdBurnExecute(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "jrocctl: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "jrocctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: jrocctl <command> [flags]

commands:
  generate-identity    create (or load) this node's ed25519 identity file
  push-proof           prove a statement over a dense polynomial and append it to the ledger
  verify-transcript     independently verify a transcript file against its claimed polynomial
  verify-anchor         replay the ledger's digests against a transcript log directory
  anchor               print the current ledger as a jrocnet.anchor.v1 document
  migration-snapshot    build a deterministic registry snapshot at a height
  claim-tree           derive the claim Merkle tree from a migration snapshot
  burn-execute         drain a burn-intent outbox against a stake registry`)
}
