// Copyright 2025 Certen Protocol
//
// The burn-intent journal is an append-only outbox of external "retire
// this stake" events and a deterministic executor that drains it
// idempotently: one JSON record per line, a persisted line-number
// cursor, and a chained hash over the consumed prefix.

package migration

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/jrochub/powerhouse/pkg/policy"
)

// BurnIntent is one external "retire this stake" event, one JSON record
// per line in the outbox file.
type BurnIntent struct {
	TokenContract string `json:"token_contract"`
	PubkeyB64     string `json:"pubkey_b64"`
	Reason        string `json:"reason"`
	Amount        uint64 `json:"amount"`
}

// ExecutorState is the persisted {cursor, processed_hash} pair that
// makes re-running the executor over the same outbox idempotent: cursor
// is the count of lines already consumed, processed_hash is a running
// digest over every consumed record. Run skips the first cursor lines
// without re-hashing them, so it does not itself detect an outbox whose
// earlier lines were replaced; see chainHash.
type ExecutorState struct {
	Cursor        int    `json:"cursor"`
	ProcessedHash string `json:"processed_hash"`
}

// Executor drains a burn-intent outbox against a stake registry,
// debiting each named public key's bonded stake, and returns its cursor
// for the caller to persist, so a second run from that state over an
// unchanged outbox is a no-op.
type Executor struct {
	reg   *policy.Stake
	state ExecutorState
	hash  [32]byte
}

// NewExecutor builds an Executor starting from a previously persisted
// state (zero value for a fresh run).
func NewExecutor(reg *policy.Stake, state ExecutorState) (*Executor, error) {
	h := [32]byte{}
	if state.ProcessedHash != "" {
		b, err := decodeHex32(state.ProcessedHash)
		if err != nil {
			return nil, fmt.Errorf("migration: decode processed_hash: %w", err)
		}
		h = b
	}
	return &Executor{reg: reg, state: state, hash: h}, nil
}

// Run reads every line of outbox, skips the first state.Cursor lines
// (already processed by a prior run), applies the rest by debiting each
// intent's amount from the named public key's bonded stake, and returns
// the updated state to persist.
func (ex *Executor) Run(outbox io.Reader) (ExecutorState, error) {
	scanner := bufio.NewScanner(outbox)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		if line <= ex.state.Cursor {
			continue
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var intent BurnIntent
		if err := json.Unmarshal(raw, &intent); err != nil {
			return ex.state, fmt.Errorf("migration: parse burn intent at line %d: %w", line, err)
		}

		pkBytes, err := base64.StdEncoding.DecodeString(intent.PubkeyB64)
		if err != nil || len(pkBytes) != 32 {
			return ex.state, fmt.Errorf("migration: burn intent at line %d: invalid pubkey_b64", line)
		}
		var pk policy.PublicKey
		copy(pk[:], pkBytes)

		if !ex.reg.DebitBonded(pk, intent.Amount) {
			return ex.state, fmt.Errorf("migration: burn intent at line %d: insufficient bonded stake for %s", line, intent.PubkeyB64)
		}

		ex.hash = chainHash(ex.hash, raw)
		ex.state.Cursor = line
		ex.state.ProcessedHash = hexEncode(ex.hash)
	}
	if err := scanner.Err(); err != nil {
		return ex.state, fmt.Errorf("migration: scan outbox: %w", err)
	}
	return ex.state, nil
}

// chainHash folds one more outbox line into the running processed_hash,
// so the persisted hash commits to the exact prefix of lines consumed so
// far; a replaced outbox whose earlier lines differ is detectable by
// re-running Run from cursor 0 and comparing hashes.
func chainHash(prev [32]byte, line []byte) [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("migration: blake2b init: %v", err))
	}
	h.Write([]byte("JROC_BURN_JOURNAL"))
	h.Write(prev[:])
	h.Write(line)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func hexEncode(b [32]byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) != 64 {
		return out, fmt.Errorf("expected 64 hex characters, got %d", len(s))
	}
	for i := 0; i < 32; i++ {
		hi, err := hexVal(s[i*2])
		if err != nil {
			return out, err
		}
		lo, err := hexVal(s[i*2+1])
		if err != nil {
			return out, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	default:
		return 0, fmt.Errorf("invalid lowercase hex digit %q", c)
	}
}
