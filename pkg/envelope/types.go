// Package envelope defines the atomic ledger unit — the signed, hash-linked
// Envelope — and the pure validator that admits or rejects one against a
// channel's registered policy and prior state.
package envelope

import (
	"encoding/json"

	"github.com/ea-systems/ledger/pkg/hashkit"
)

// Header carries the chain-linkage and timing metadata hashed into the
// envelope but never interpreted as payload.
type Header struct {
	Channel   string         `json:"channel"`
	Version   uint16         `json:"version"`
	Prev      hashkit.Digest `json:"prev,omitempty"`
	BodyHash  hashkit.Digest `json:"body_hash"`
	Timestamp uint64         `json:"timestamp"`
}

// Body is the producer-supplied payload plus an optional type tag. Payload is
// kept as json.RawMessage so canonicalization operates on exactly the bytes
// the producer signed, and so the core never needs to understand payload
// shape beyond the single well-known `domain` field (see Domain()).
type Body struct {
	Payload     json.RawMessage `json:"payload"`
	PayloadType string          `json:"payload_type,omitempty"`
}

// Signature is one Ed25519 signature over envelope_hash by a named signer.
type Signature struct {
	Signer    hashkit.Digest `json:"signer"`
	Signature string         `json:"signature"`
}

// Attestation is a signed third-party statement accompanying an envelope.
type Attestation struct {
	Issuer        hashkit.Digest `json:"issuer"`
	Statement     Statement      `json:"statement"`
	StatementHash hashkit.Digest `json:"statement_hash"`
	Signature     string         `json:"signature"`
}

// Envelope is the atomic ledger unit.
type Envelope struct {
	Header       Header        `json:"header"`
	Body         Body          `json:"body"`
	Signatures   []Signature   `json:"signatures"`
	Attestations []Attestation `json:"attestations"`
}

// Domain extracts payload.domain for the domain index (§4.I), returning ""
// if the payload is not a JSON object or has no string-typed "domain" field.
// This is the one piece of payload structure the core is ever allowed to
// interpret.
func (e *Envelope) Domain() string {
	if len(e.Body.Payload) == 0 {
		return ""
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(e.Body.Payload, &m); err != nil {
		return ""
	}
	raw, ok := m["domain"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// reservedPayloadKeys lists object keys invariant 8 forbids in any payload,
// enforced by the orchestrator, not the validator.
var reservedPayloadKeys = []string{"dynamic_code", "shared_memory"}

// HasReservedKeys reports whether the payload object contains a reserved key.
// Non-object payloads never contain reserved keys.
func (e *Envelope) HasReservedKeys() (string, bool) {
	if len(e.Body.Payload) == 0 {
		return "", false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(e.Body.Payload, &m); err != nil {
		return "", false
	}
	for _, k := range reservedPayloadKeys {
		if _, ok := m[k]; ok {
			return k, true
		}
	}
	return "", false
}
