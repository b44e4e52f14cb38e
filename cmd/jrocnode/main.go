// Copyright 2025 Certen Protocol
//
// jrocnode wires the proof-transparent ledger's runtime components
// together: identity, the KV-backed ledger behind its single-writer
// task, a membership policy, the data-availability engine and its HTTP
// surface, metrics, and the evidence outbox.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jrochub/powerhouse/pkg/config"
	"github.com/jrochub/powerhouse/pkg/da"
	"github.com/jrochub/powerhouse/pkg/evidence"
	"github.com/jrochub/powerhouse/pkg/identity"
	"github.com/jrochub/powerhouse/pkg/ingest"
	"github.com/jrochub/powerhouse/pkg/kvdb"
	"github.com/jrochub/powerhouse/pkg/ledger"
	"github.com/jrochub/powerhouse/pkg/metrics"
	"github.com/jrochub/powerhouse/pkg/policy"
)

func main() {
	genNodeID := flag.Bool("gen-node-id", false, "print a fresh random node ID and exit, instead of starting the node")
	flag.Parse()

	if *genNodeID {
		fmt.Println("jrocnode-" + uuid.NewString())
		return
	}

	if err := run(); err != nil {
		log.Fatalf("jrocnode: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.NodeID == "jrocnode-local" {
		// No JROC_NODE_ID was set: mint a stable-for-this-process random
		// one rather than letting every local devnet node collide on the
		// same identity-correlation key.
		cfg.NodeID = "jrocnode-" + uuid.NewString()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	logger.Printf("starting node_id=%s network=%s listen=%s", cfg.NodeID, cfg.NetworkID, cfg.ListenAddr)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	km := identity.NewKeyManager(cfg.Ed25519KeyPath)
	if err := km.LoadOrGenerate(nil); err != nil {
		return fmt.Errorf("load or generate identity: %w", err)
	}
	operator := policy.PublicKey(km.PublicKeyBytes())
	logger.Printf("identity ready operator_pk=%x", operator[:8])

	ledgerKV, err := kvdb.Open("ledger", cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer ledgerKV.Close()

	led, err := ledger.NewLedger(ledgerKV)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	task := ingest.NewLedgerTask(led)
	defer task.Stop()
	logger.Printf("ledger ready fold_digest=%x", task.FoldDigest())

	stakeReg := policy.NewStake(cfg.StakeBondMinimum, []policy.StakeEntry{
		{PublicKey: operator, Balance: 0, Bonded: cfg.StakeBondMinimum, Slashed: false},
	})

	var pol policy.Policy
	switch cfg.PolicyKind {
	case "static":
		pol = policy.NewStatic([]policy.PublicKey{operator})
	case "multisig":
		pol = policy.NewMultisig(1, []policy.PublicKey{operator}, []policy.PublicKey{operator})
	case "stake":
		pol = stakeReg
	default:
		return fmt.Errorf("unknown JROC_POLICY_KIND %q", cfg.PolicyKind)
	}

	outbox, err := evidence.Open(cfg.EvidenceOutboxPath)
	if err != nil {
		return fmt.Errorf("open evidence outbox: %w", err)
	}
	defer outbox.Close()

	blobStore, err := da.NewStore(filepath.Join(cfg.DataDir, "blobs"))
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	engine := da.NewEngine(blobStore, stakeReg, pol, outbox, operator, cfg.AttestationQuorum)
	engine.SetMaxBlobBytes(cfg.MaxBlobBytes)
	engine.SetOperatorRewardBps(cfg.OperatorRewardBps)
	if cfg.MigrationFreeze {
		engine.SetFrozen(true)
		logger.Printf("migration freeze active: blob ingest and bonding transitions rejected")
	}
	daHandlers := da.NewHandlers(engine, cfg.APIKey, logger)

	metricsReg := metrics.New()

	dedup := ingest.NewDedup(4096, func() { metricsReg.LRUCacheEvictionsTotal.Inc() })
	limiter := ingest.NewRateLimiter(cfg.MaxPerMinPerNS)
	reconciler := ingest.NewReconciler(pol, dedup, limiter, metricsReg, cfg.EnvelopeMaxBytes, cfg.EnvelopeMaxEntries)
	reconciler.SetQCGate(blobStore.HasQC)

	apiMux := http.NewServeMux()
	daHandlers.Register(apiMux)
	apiMux.HandleFunc("/anchor", func(w http.ResponseWriter, r *http.Request) {
		snap := task.Snapshot()
		writeAnchorDocument(w, cfg, snap, task.FoldDigest())
	})
	// /envelope and /quorum stand in for the abstract broadcast/receive
	// interface the transport supplies: a deployment's gossip adapter
	// calls reconciler.OnReceive directly instead of going through HTTP,
	// but these routes let a bare node exercise the reconciliation path
	// without one (a test harness, a single-node devnet, or a sidecar
	// bridging some other pubsub).
	apiMux.HandleFunc("/envelope", func(w http.ResponseWriter, r *http.Request) {
		handleEnvelope(w, r, reconciler, cfg.NetworkID)
	})
	apiMux.HandleFunc("/quorum", func(w http.ResponseWriter, r *http.Request) {
		handleQuorum(w, reconciler, cfg.QuorumThreshold)
	})
	apiServer := &http.Server{Addr: cfg.ListenAddr, Handler: apiMux}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metricsReg.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Printf("api listening addr=%s", cfg.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Printf("metrics listening addr=%s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("api server shutdown error: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("metrics server shutdown error: %v", err)
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Printf("shutdown signal received")
		cancel()
	}()

	return group.Wait()
}

func writeAnchorDocument(w http.ResponseWriter, cfg *config.Config, snap ledger.LedgerAnchor, fold [32]byte) {
	doc := ledger.AnchorDocument{
		Schema:        ledger.AnchorSchema,
		Network:       cfg.NetworkID,
		NodeID:        cfg.NodeID,
		ChallengeMode: challengeModeName(cfg.FieldPrime),
		FoldDigest:    fmt.Sprintf("%x", fold),
		Entries:       snap.Entries,
		Quorum:        cfg.QuorumThreshold,
		CrateVersion:  "jroc-0.1",
		TimestampMs:   time.Now().UnixMilli(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := jsonEncode(w, doc); err != nil {
		log.Printf("jrocnode: encode anchor document: %v", err)
	}
}
