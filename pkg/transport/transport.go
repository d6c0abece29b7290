// Package transport defines the uniform append/read/subscribe contract
// (spec component K) implemented by every concrete adapter — loopback,
// Unix-IPC, remote streaming, mailbox — plus the shared handshake and error
// taxonomy those adapters enforce identically.
package transport

import (
	"context"
	"fmt"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
)

// Transport is the contract every adapter satisfies. append validates and
// publishes; read is a point-in-time snapshot; subscribe opens a live feed
// of envelopes appended after the call.
type Transport interface {
	Append(ctx context.Context, env *envelope.Envelope) (*ledger.Receipt, error)
	Read(ctx context.Context, offset, limit int) ([]*envelope.Envelope, error)
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a live, cancelable feed of envelopes in append order.
// Closing it unsubscribes; it never blocks a producer (see Broadcaster).
type Subscription interface {
	Envelopes() <-chan *envelope.Envelope
	Close()
}

// Handshake is presented with every Append, Read and Subscribe request on the
// remote streaming transport (spec.md §6 "Remote streaming protocol"); the
// loopback, Unix-IPC and mailbox transports do not use it. A zero-value
// Handshake with no expectations set always passes.
type Handshake struct {
	Nonce                 string
	ExpectedRuntimeID     string
	ExpectedStatementHash string
	PresentedAttestation  *envelope.Attestation
}

// Verify implements §6's handshake algorithm: if either expected field is
// set and no attestation is presented, deny; if ExpectedStatementHash is set
// and it doesn't match the presented statement's hash, deny; if
// ExpectedRuntimeID is set and the presented statement isn't a matching
// Runtime attestation, deny.
func (h Handshake) Verify() error {
	needsAttestation := h.ExpectedRuntimeID != "" || h.ExpectedStatementHash != ""
	if needsAttestation && h.PresentedAttestation == nil {
		return &PermissionDeniedError{Reason: "handshake requires an attestation but none was presented"}
	}
	if h.PresentedAttestation == nil {
		return nil
	}

	if h.ExpectedStatementHash != "" {
		sh, err := envelope.StatementHash(h.PresentedAttestation.Statement)
		if err != nil {
			return &PermissionDeniedError{Reason: "presented attestation statement could not be hashed: " + err.Error()}
		}
		if string(sh) != h.ExpectedStatementHash {
			return &PermissionDeniedError{Reason: "presented attestation statement_hash does not match expected"}
		}
	}

	if h.ExpectedRuntimeID != "" {
		stmt := h.PresentedAttestation.Statement
		if stmt.Kind != envelope.StatementRuntime || stmt.Runtime == nil {
			return &PermissionDeniedError{Reason: "expected_runtime_id set but presented attestation is not a runtime statement"}
		}
		if stmt.Runtime.RuntimeID != h.ExpectedRuntimeID {
			return &PermissionDeniedError{Reason: "presented runtime_id does not match expected_runtime_id"}
		}
	}
	return nil
}

// BackpressureError is returned when a transport's broadcast fan-out has
// reached its configured depth. Retriable — the caller should back off.
type BackpressureError struct {
	Depth int
}

func (e *BackpressureError) Error() string {
	return fmt.Sprintf("transport: backpressure, depth %d reached", e.Depth)
}

// PermissionDeniedError is returned when a handshake fails verification.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string { return "transport: permission denied: " + e.Reason }

// FrameError is returned for a malformed frame on a framed wire transport
// (Unix-IPC).
type FrameError struct {
	Detail string
}

func (e *FrameError) Error() string { return "transport: malformed frame: " + e.Detail }

// TransportError wraps an underlying I/O failure (socket, stream, RPC).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return "transport: " + e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// UnsupportedError is returned by adapters (or operations on adapters) that
// are intentionally not implemented — e.g. the reserved EnclaveProxy
// adapter kind.
type UnsupportedError struct {
	Detail string
}

func (e *UnsupportedError) Error() string { return "transport: unsupported: " + e.Detail }

// DefaultBackpressureDepth is the broadcast-channel depth new adapters use
// unless configured otherwise (spec.md §4.K: "Default depth: 1024").
const DefaultBackpressureDepth = 1024
