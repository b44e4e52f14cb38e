package migration

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jrochub/powerhouse/pkg/policy"
)

func TestExecutorDebitsBondedStake(t *testing.T) {
	target := pk(9)
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: target, Balance: 0, Bonded: 100},
	})

	line := `{"token_contract":"0xabc","pubkey_b64":"` + base64.StdEncoding.EncodeToString(target[:]) + `","reason":"bridge-burn","amount":40}` + "\n"

	ex, err := NewExecutor(reg, ExecutorState{})
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	state, err := ex.Run(strings.NewReader(line))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", state.Cursor)
	}

	entry, ok := reg.Entry(target)
	if !ok {
		t.Fatalf("entry missing")
	}
	if entry.Bonded != 60 {
		t.Fatalf("bonded = %d, want 60", entry.Bonded)
	}
}

func TestExecutorIsIdempotentAcrossReruns(t *testing.T) {
	target := pk(9)
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: target, Balance: 0, Bonded: 100},
	})
	line := `{"token_contract":"0xabc","pubkey_b64":"` + base64.StdEncoding.EncodeToString(target[:]) + `","reason":"bridge-burn","amount":40}` + "\n"

	ex1, _ := NewExecutor(reg, ExecutorState{})
	state1, err := ex1.Run(strings.NewReader(line))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	ex2, err := NewExecutor(reg, state1)
	if err != nil {
		t.Fatalf("new executor 2: %v", err)
	}
	state2, err := ex2.Run(strings.NewReader(line))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if state2.Cursor != state1.Cursor {
		t.Fatalf("cursor advanced on a rerun over the same outbox: %d -> %d", state1.Cursor, state2.Cursor)
	}

	entry, _ := reg.Entry(target)
	if entry.Bonded != 60 {
		t.Fatalf("bonded double-debited across reruns: %d, want 60", entry.Bonded)
	}
}

func TestExecutorRejectsInsufficientBondedStake(t *testing.T) {
	target := pk(9)
	reg := policy.NewStake(10, []policy.StakeEntry{
		{PublicKey: target, Balance: 0, Bonded: 5},
	})
	line := `{"token_contract":"0xabc","pubkey_b64":"` + base64.StdEncoding.EncodeToString(target[:]) + `","reason":"bridge-burn","amount":40}` + "\n"

	ex, _ := NewExecutor(reg, ExecutorState{})
	if _, err := ex.Run(strings.NewReader(line)); err == nil {
		t.Fatalf("expected an error for insufficient bonded stake")
	}
}
