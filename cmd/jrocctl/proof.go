// Copyright 2025 Certen Protocol

package main

import (
	"flag"
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"github.com/jrochub/powerhouse/pkg/challenge"
	"github.com/jrochub/powerhouse/pkg/field"
	"github.com/jrochub/powerhouse/pkg/kvdb"
	"github.com/jrochub/powerhouse/pkg/ledger"
	"github.com/jrochub/powerhouse/pkg/poly"
	"github.com/jrochub/powerhouse/pkg/sumcheck"
	"github.com/jrochub/powerhouse/pkg/transcript"
)

const defaultFieldPrime = 2305843009213693951 // 2^61 - 1

func parseValues(s string, p uint64) ([]field.Element, error) {
	parts := strings.Split(s, ",")
	out := make([]field.Element, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): %w", i, part, err)
		}
		out[i] = field.New(v, p)
	}
	return out, nil
}

func denseEvaluator(values []field.Element) (*poly.Dense, int, error) {
	n := len(values)
	if n == 0 || n&(n-1) != 0 {
		return nil, 0, fmt.Errorf("values count %d is not a power of two", n)
	}
	dim := bits.TrailingZeros(uint(n))
	return poly.NewDense(dim, values), dim, nil
}

func cmdPushProof(args []string) error {
	fs := flag.NewFlagSet("push-proof", flag.ExitOnError)
	statement := fs.String("statement", "", "ledger statement text this proof is appended under")
	values := fs.String("values", "", "comma-separated hypercube values, count must be a power of two")
	p := fs.Uint64("field-prime", defaultFieldPrime, "prime modulus (must be odd)")
	dataDir := fs.String("data-dir", "./data", "ledger data directory")
	out := fs.String("out", "", "write the serialized transcript to this path (default: stdout)")
	logDirPath := fs.String("log-dir", "", "also write the transcript into this log directory as the next ledger_NNNN.txt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *statement == "" {
		return fmt.Errorf("-statement is required")
	}
	if *statement == ledger.GenesisStatement {
		return ledger.ErrGenesisStatement
	}

	elems, err := parseValues(*values, *p)
	if err != nil {
		return fmt.Errorf("parse -values: %w", err)
	}
	dense, _, err := denseEvaluator(elems)
	if err != nil {
		return fmt.Errorf("build evaluator: %w", err)
	}

	proof := sumcheck.Prove(dense, *p)
	rec := transcript.Record{
		Statement:     *statement,
		Challenges:    proof.Challenges,
		RoundSums:     proof.RoundSums,
		Final:         proof.Final,
		ChallengeMode: string(proof.Mode),
	}.WithDigest()

	serialized, err := rec.Serialize()
	if err != nil {
		return fmt.Errorf("serialize transcript: %w", err)
	}
	if *out != "" {
		if err := os.WriteFile(*out, serialized, 0o644); err != nil {
			return fmt.Errorf("write transcript file: %w", err)
		}
	} else {
		os.Stdout.Write(serialized)
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
	if err := led.Push(*statement, rec.Digest); err != nil {
		return fmt.Errorf("push to ledger: %w", err)
	}

	if *logDirPath != "" {
		logDir, err := transcript.NewLogDir(*logDirPath)
		if err != nil {
			return err
		}
		if _, err := logDir.WriteRecord(rec); err != nil {
			return err
		}
		fold := led.FoldDigest()
		if err := logDir.WriteFoldDigest(fold); err != nil {
			return err
		}
		meta := transcript.AnchorMeta{
			ChallengeMode: rec.ChallengeMode,
			FoldDigest:    fmt.Sprintf("%x", fold),
		}
		if err := logDir.WriteAnchorMeta(meta); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "digest: %x\nfold_digest: %x\n", rec.Digest, led.FoldDigest())
	return nil
}

// cmdVerifyAnchor replays the validity predicate: every digest stored in
// the ledger must equal the digest recomputed from the transcript files
// in the log directory that produced it, and the first entry must be the
// fixed genesis.
func cmdVerifyAnchor(args []string) error {
	fs := flag.NewFlagSet("verify-anchor", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./data", "ledger data directory")
	logDirPath := fs.String("log-dir", "", "directory holding the ledger_NNNN.txt transcripts to replay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *logDirPath == "" {
		return fmt.Errorf("-log-dir is required")
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

	logDir, err := transcript.NewLogDir(*logDirPath)
	if err != nil {
		return err
	}
	records, quarantined, err := logDir.ReadAll()
	if err != nil {
		return err
	}
	for name, qerr := range quarantined {
		fmt.Fprintf(os.Stderr, "quarantined %s: %v\n", name, qerr)
	}

	// Recomputed digests queue up per statement, in file order, and are
	// consumed positionally as the anchor's entries replay against them.
	byStatement := make(map[string][][32]byte)
	for _, rec := range records {
		byStatement[rec.Statement] = append(byStatement[rec.Statement],
			transcript.ComputeDigest(rec.Challenges, rec.RoundSums, rec.Final))
	}
	consumed := make(map[string]int)
	lookup := func(entryIndex, hashIndex int) ([32]byte, error) {
		stmt := snap.Entries[entryIndex].Statement
		if entryIndex == 0 && stmt == ledger.GenesisStatement {
			return ledger.GenesisDigest(), nil
		}
		queue := byStatement[stmt]
		pos := consumed[stmt]
		if pos >= len(queue) {
			return [32]byte{}, fmt.Errorf("no transcript in log directory for statement %q hash %d", stmt, hashIndex)
		}
		consumed[stmt]++
		return queue[pos], nil
	}

	if err := ledger.Valid(snap, lookup); err != nil {
		return err
	}
	fmt.Printf("OK entries=%d fold_digest=%x\n", len(snap.Entries), led.FoldDigest())
	return nil
}

func cmdVerifyTranscript(args []string) error {
	fs := flag.NewFlagSet("verify-transcript", flag.ExitOnError)
	file := fs.String("file", "", "path to a serialized transcript")
	values := fs.String("values", "", "comma-separated hypercube values the transcript claims to prove a sum over")
	p := fs.Uint64("field-prime", defaultFieldPrime, "prime modulus (must match the one the proof was generated under)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	rec, err := transcript.Parse(data)
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	if !rec.VerifyDigest() {
		return fmt.Errorf("transcript digest does not match its numeric sections: digest-mismatch")
	}
	if challenge.ModeFor(*p) == challenge.ModeRejection && rec.ChallengeMode != string(challenge.ModeRejection) {
		return fmt.Errorf("challenge-mode-unsound: modulus %d requires challenge_mode: rejection, transcript carries %q", *p, rec.ChallengeMode)
	}

	elems, err := parseValues(*values, *p)
	if err != nil {
		return fmt.Errorf("parse -values: %w", err)
	}
	dense, _, err := denseEvaluator(elems)
	if err != nil {
		return fmt.Errorf("build evaluator: %w", err)
	}

	var claimedSum field.Element
	for i := uint64(0); i < uint64(1)<<uint(dense.Dim()); i++ {
		if i == 0 {
			claimedSum = dense.EvalAt(i)
			continue
		}
		claimedSum = claimedSum.Add(dense.EvalAt(i))
	}

	proof := sumcheck.Proof{
		Challenges: rec.Challenges,
		RoundSums:  rec.RoundSums,
		Final:      rec.Final,
		Mode:       challenge.Mode(rec.ChallengeMode),
	}
	if err := sumcheck.Verify(dense, *p, claimedSum.Uint64(), proof); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	fmt.Printf("OK statement=%q digest=%x\n", rec.Statement, rec.Digest)
	return nil
}
