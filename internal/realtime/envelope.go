// Package realtime delivers mutation envelopes between household clients.
//
// Every domain mutation travels as a single envelope shape, a JSON object
// {"type": "<dot.separated.name>", "payload": <json>}. Two channels carry
// envelopes: an in-process Bus standing in for same-device tabs, and an
// optional websocket to a shared relay for cross-device delivery. Both are
// best-effort and at-least-once; deduplication is the receiving store's job.
package realtime

import (
	"encoding/json"
)

// Envelope is the unit of replication. Payload stays raw at this layer;
// the store decodes it into the typed payload for the given Type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode renders the envelope as a wire frame.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ParseFrame decodes an inbound wire frame. Malformed frames report ok=false
// and are dropped by the caller; a frame without a type is also malformed.
func ParseFrame(frame []byte) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, false
	}
	if env.Type == "" {
		return Envelope{}, false
	}
	return env, true
}

// NewEnvelope marshals a typed payload into an envelope. Marshal failures
// report ok=false; callers treat that as a swallowed transport error.
func NewEnvelope(kind string, payload any) (Envelope, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, false
	}
	return Envelope{Type: kind, Payload: raw}, true
}
