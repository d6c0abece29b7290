package remote

import (
	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
)

// AppendRequest is the client-streamed message for the Append RPC: an
// envelope plus the handshake presentation (spec.md §6 "Handshake").
type AppendRequest struct {
	Envelope             *envelope.Envelope     `msgpack:"envelope"`
	Nonce                string                 `msgpack:"nonce"`
	PresentedAttestation *envelope.Attestation  `msgpack:"presented_attestation,omitempty"`
}

// AppendResponse is the server-streamed reply for each AppendRequest.
type AppendResponse struct {
	Receipt *ledger.Receipt `msgpack:"receipt,omitempty"`
	Error   string          `msgpack:"error,omitempty"`
}

// ReadRequest is the single client message that opens a Read server-stream.
type ReadRequest struct {
	Offset                int                   `msgpack:"offset"`
	Limit                 int                   `msgpack:"limit"`
	Nonce                 string                `msgpack:"nonce"`
	PresentedAttestation  *envelope.Attestation `msgpack:"presented_attestation,omitempty"`
}

// SubscribeRequest is the single client message that opens a Subscribe
// server-stream.
type SubscribeRequest struct {
	Nonce                string                `msgpack:"nonce"`
	PresentedAttestation *envelope.Attestation `msgpack:"presented_attestation,omitempty"`
}

// EnvelopeMessage is one server-streamed item for Read and Subscribe.
type EnvelopeMessage struct {
	Envelope *envelope.Envelope `msgpack:"envelope"`
}
