// Copyright 2025 Certen Protocol
//
// HTTP surface for the data-availability node: plain net/http with
// manual path trimming and writeJSON/writeError response-envelope
// helpers.

package da

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrochub/powerhouse/pkg/policy"
)

// Handlers serves the data-availability HTTP surface over one Engine.
type Handlers struct {
	engine *Engine
	apiKey string // accepted via Authorization: Bearer <key> or X-Api-Key
	logger *log.Logger
}

// NewHandlers builds Handlers for engine. An empty apiKey disables
// authentication, e.g. for local development.
func NewHandlers(engine *Engine, apiKey string, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{engine: engine, apiKey: apiKey, logger: logger}
}

func (h *Handlers) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		return true
	}
	if key := r.Header.Get("X-Api-Key"); key == h.apiKey {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ") == h.apiKey
	}
	return false
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("da: error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// Register attaches all data-availability routes to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/submit_blob", h.handleSubmitBlob)
	mux.HandleFunc("/commitment/", h.handleCommitment)
	mux.HandleFunc("/sample/", h.handleSample)
	mux.HandleFunc("/prove_storage/", h.handleProveStorage)
	mux.HandleFunc("/rollup_settle", h.handleRollupSettle)
	mux.HandleFunc("/healthz", h.handleHealthz)
}

type submitBlobResponse struct {
	Hash         string `json:"hash"`
	ShareRoot    string `json:"share_root"`
	PedersenRoot string `json:"pedersen_root"`
	ShareCount   int    `json:"share_count"`
}

type commitmentResponse struct {
	Namespace    string          `json:"namespace"`
	Hash         string          `json:"hash"`
	ShardSize    int             `json:"shard_size"`
	ShareCount   int             `json:"share_count"`
	ShareRoot    string          `json:"share_root"`
	PedersenRoot string          `json:"pedersen_root"`
	Attestations []attestationJS `json:"attestations"`
}

func toCommitmentResponse(c Commitment, qc QC) commitmentResponse {
	resp := commitmentResponse{
		Namespace:    c.Namespace,
		Hash:         hex.EncodeToString(c.Hash[:]),
		ShardSize:    c.ShardSize,
		ShareCount:   c.ShareCount,
		ShareRoot:    hex.EncodeToString(c.ShareRoot[:]),
		PedersenRoot: hex.EncodeToString(c.PedersenRoot[:]),
	}
	for _, a := range qc.Attestations {
		resp.Attestations = append(resp.Attestations, attestationJS{
			PublicKey: hex.EncodeToString(a.PublicKey[:]),
			Signature: hex.EncodeToString(a.Signature),
		})
	}
	return resp
}

// handleSubmitBlob ingests a raw payload body. The submission metadata
// travels in headers: X-Namespace (required), X-Fee, X-Publisher
// (base64 ed25519 public key), and X-Publisher-Sig (base64 signature
// over the resulting share_root, checked after commitment).
func (h *Handlers) handleSubmitBlob(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "auth-required", "missing or invalid credentials")
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method-not-allowed", "submit_blob requires POST")
		return
	}

	namespace := r.Header.Get("X-Namespace")
	if namespace == "" {
		h.writeError(w, http.StatusBadRequest, "bad-request", "X-Namespace header is required")
		return
	}
	var fee uint64
	if raw := r.Header.Get("X-Fee"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad-request", "X-Fee must be an unsigned integer")
			return
		}
		fee = n
	}
	var publisher policy.PublicKey
	havePublisher := false
	if raw := r.Header.Get("X-Publisher"); raw != "" {
		pk, err := base64.StdEncoding.DecodeString(raw)
		if err != nil || len(pk) != 32 {
			h.writeError(w, http.StatusBadRequest, "bad-request", "X-Publisher must be a base64 32-byte ed25519 public key")
			return
		}
		copy(publisher[:], pk)
		havePublisher = true
	}
	var publisherSig []byte
	if raw := r.Header.Get("X-Publisher-Sig"); raw != "" {
		sig, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad-request", "X-Publisher-Sig must be base64")
			return
		}
		publisherSig = sig
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, int64(h.engine.maxBlobBytes)+1))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "payload-too-large", "request body exceeds the blob size cap")
		return
	}

	if havePublisher && publisherSig != nil {
		// The publisher signs the share_root it computed before
		// submitting; recommit here so a bad signature is rejected
		// before anything is persisted or any fee is charged.
		pre, _, err := Commit(namespace, payload, 0)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "bad-request", err.Error())
			return
		}
		if !ed25519.Verify(ed25519.PublicKey(publisher[:]), pre.ShareRoot[:], publisherSig) {
			h.writeError(w, http.StatusBadRequest, "bad-request", "X-Publisher-Sig does not verify over share_root")
			return
		}
	}

	c, err := h.engine.SubmitBlob(namespace, payload, 0, publisher, fee)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, submitBlobResponse{
		Hash:         hex.EncodeToString(c.Hash[:]),
		ShareRoot:    hex.EncodeToString(c.ShareRoot[:]),
		PedersenRoot: hex.EncodeToString(c.PedersenRoot[:]),
		ShareCount:   c.ShareCount,
	})
}

func (h *Handlers) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrIngressFrozen):
		h.writeError(w, http.StatusServiceUnavailable, "ingress-frozen", err.Error())
	default:
		var tooLarge *ErrBlobTooLarge
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "blob-too-large", err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "submit-failed", err.Error())
	}
}

// pathParts splits the remainder of a path after a known prefix into
// its "/"-separated segments, dropping empty leading/trailing pieces.
func pathParts(urlPath, prefix string) []string {
	rest := strings.TrimPrefix(urlPath, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func (h *Handlers) handleCommitment(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "auth-required", "missing or invalid credentials")
		return
	}
	parts := pathParts(r.URL.Path, "/commitment/")
	if len(parts) != 2 {
		h.writeError(w, http.StatusBadRequest, "bad-request", "expected /commitment/<namespace>/<hash>")
		return
	}
	var hash [32]byte
	if err := decodeHex32(parts[1], &hash); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "hash must be 32 hex-encoded bytes")
		return
	}
	c, err := h.engine.store.GetCommitment(parts[0], hash)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "not-found", "no commitment for that namespace/hash")
		return
	}
	qc, err := h.engine.store.LoadQC(parts[0], hash)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "qc-load-failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, toCommitmentResponse(c, qc))
}

type sampledResponse struct {
	Index         int           `json:"index"`
	Share         string        `json:"share_base64"`
	Proof         []sib         `json:"proof"`
	PedersenProof []pedersenSib `json:"pedersen_proof"`
}

type sib struct {
	Hash  string `json:"hash"`
	Right bool   `json:"right"`
}

type pedersenSib struct {
	Point string `json:"point"` // compressed G1 point, hex
	Right bool   `json:"right"`
}

func toSampledResponse(s Sampled) sampledResponse {
	sr := sampledResponse{Index: s.Index, Share: base64.StdEncoding.EncodeToString(s.Share)}
	for _, sb := range s.Proof.Siblings {
		sr.Proof = append(sr.Proof, sib{Hash: hex.EncodeToString(sb.Hash[:]), Right: sb.Right})
	}
	for _, sb := range s.PedersenProof.Siblings {
		compressed := sb.Point.Bytes()
		sr.PedersenProof = append(sr.PedersenProof, pedersenSib{Point: hex.EncodeToString(compressed[:]), Right: sb.Right})
	}
	return sr
}

func (h *Handlers) handleSample(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "auth-required", "missing or invalid credentials")
		return
	}
	parts := pathParts(r.URL.Path, "/sample/")
	if len(parts) != 2 {
		h.writeError(w, http.StatusBadRequest, "bad-request", "expected /sample/<namespace>/<hash>")
		return
	}
	var hash [32]byte
	if err := decodeHex32(parts[1], &hash); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "hash must be 32 hex-encoded bytes")
		return
	}
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "bad-request", "count must be a positive integer")
			return
		}
		count = n
	}

	samples, err := h.engine.Sample(parts[0], hash, count)
	if err != nil {
		h.writeSampleError(w, err)
		return
	}
	resp := make([]sampledResponse, len(samples))
	for i, s := range samples {
		resp[i] = toSampledResponse(s)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeSampleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCommitmentNotFound):
		h.writeError(w, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, ErrShareMissing):
		h.writeError(w, http.StatusConflict, "share-missing", err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, "sample-failed", err.Error())
	}
}

func (h *Handlers) handleProveStorage(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "auth-required", "missing or invalid credentials")
		return
	}
	parts := pathParts(r.URL.Path, "/prove_storage/")
	if len(parts) != 3 {
		h.writeError(w, http.StatusBadRequest, "bad-request", "expected /prove_storage/<namespace>/<hash>/<index>")
		return
	}
	var hash [32]byte
	if err := decodeHex32(parts[1], &hash); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "hash must be 32 hex-encoded bytes")
		return
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "index must be an integer")
		return
	}

	s, err := h.engine.ProveStorage(parts[0], hash, index)
	if err != nil {
		h.writeSampleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSampledResponse(s))
}

type rollupSettleRequest struct {
	Namespace    string `json:"namespace"`
	Hash         string `json:"hash"`
	ShareRoot    string `json:"share_root"`
	PedersenRoot string `json:"pedersen_root"`
	Fee          uint64 `json:"fee"`
}

type rollupSettleResponse struct {
	Final             bool `json:"final"`
	AttestationsCount int  `json:"attestations_count"`
}

func (h *Handlers) handleRollupSettle(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, "auth-required", "missing or invalid credentials")
		return
	}
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method-not-allowed", "rollup_settle requires POST")
		return
	}
	var req rollupSettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "invalid request body")
		return
	}
	var hash, shareRoot, pedersenRoot [32]byte
	if err := decodeHex32(req.Hash, &hash); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "hash must be 32 hex-encoded bytes")
		return
	}
	if err := decodeHex32(req.ShareRoot, &shareRoot); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "share_root must be 32 hex-encoded bytes")
		return
	}
	if err := decodeHex32(req.PedersenRoot, &pedersenRoot); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad-request", "pedersen_root must be 32 hex-encoded bytes")
		return
	}
	qc, final, err := h.engine.RollupSettle(req.Namespace, hash, shareRoot, pedersenRoot)
	if err != nil {
		if errors.Is(err, ErrRollupFault) {
			h.writeError(w, http.StatusConflict, "rollup-fault", err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "rollup-settle-failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, rollupSettleResponse{Final: final, AttestationsCount: len(qc.Attestations)})
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
