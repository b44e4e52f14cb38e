// Copyright 2025 Certen Protocol

package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrochub/powerhouse/pkg/challenge"
	"github.com/jrochub/powerhouse/pkg/ingest"
)

func challengeModeName(p uint64) string {
	return string(challenge.ModeFor(p))
}

func jsonEncode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

func handleEnvelope(w http.ResponseWriter, r *http.Request, rec *ingest.Reconciler, defaultTopic string) {
	if r.Method != http.MethodPost {
		http.Error(w, "envelope requires POST", http.StatusMethodNotAllowed)
		return
	}
	topic := r.Header.Get("X-Topic")
	if topic == "" {
		topic = defaultTopic
	}
	fromPeer := r.Header.Get("X-Peer")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "body too large or unreadable", http.StatusBadRequest)
		return
	}

	contributionsBefore := rec.ContributionCount()
	rec.OnReceive(topic, fromPeer, body)

	w.Header().Set("Content-Type", "application/json")
	_ = jsonEncode(w, map[string]interface{}{
		"accepted":     rec.ContributionCount() > contributionsBefore,
		"contributors": rec.ContributionCount(),
	})
}

func handleQuorum(w http.ResponseWriter, rec *ingest.Reconciler, threshold int) {
	res := rec.Finalize(threshold)
	w.Header().Set("Content-Type", "application/json")
	_ = jsonEncode(w, map[string]interface{}{
		"final":        res.Final,
		"count":        res.Count,
		"contributors": rec.ContributionCount(),
	})
}
