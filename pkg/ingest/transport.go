// Copyright 2025 Certen Protocol

package ingest

// Broadcaster is the abstract fire-and-forget publish capability the p2p
// transport provides; backpressure surfaces as a fatal transport error.
// The core never constructs one; callers outside this module supply an
// adapter over whatever gossip library they run.
type Broadcaster interface {
	Broadcast(topic string, payload []byte) error
}

// ReceiveFunc is the shape the transport invokes with an already-signed,
// not-yet-verified envelope. Reconciler.OnReceive implements it.
type ReceiveFunc func(topic, fromPeer string, payload []byte)

// PeerIdentity resolves a transport-level peer handle to the ed25519
// public key it gossips under, for identity-hygiene correlation. Not
// called by anything in this package; it exists so a wiring layer can
// type-check its transport adapter against the interface this module
// expects.
type PeerIdentity func(peer string) (pk [32]byte, ok bool)
