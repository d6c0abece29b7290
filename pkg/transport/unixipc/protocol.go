// Package unixipc implements the Unix-IPC transport (spec component M):
// a framed request/response/event protocol over a local socket, with
// server-side subscribe fan-out. Grounded structurally on spec.md §4.M's
// wire description (4-byte length prefix, Request/Response/Event triad);
// the serialization itself substitutes `github.com/vmihailenco/msgpack/v5`
// for the source system's bincode, per SPEC_FULL §4.M.1 — Go's nearest
// ecosystem analogue to a compact, schema-free binary codec.
package unixipc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ea-systems/ledger/pkg/envelope"
	"github.com/ea-systems/ledger/pkg/ledger"
)

// RequestKind discriminates the Request tagged union.
type RequestKind string

const (
	RequestAppend    RequestKind = "append"
	RequestRead      RequestKind = "read"
	RequestSubscribe RequestKind = "subscribe"
)

// Request is the client-to-server frame.
type Request struct {
	Kind     RequestKind        `msgpack:"kind"`
	Envelope *envelope.Envelope `msgpack:"envelope,omitempty"`
	Offset   int                `msgpack:"offset,omitempty"`
	Limit    int                `msgpack:"limit,omitempty"`
}

// ResponseKind discriminates the Response tagged union.
type ResponseKind string

const (
	ResponseAppendOk      ResponseKind = "append_ok"
	ResponseReadOk        ResponseKind = "read_ok"
	ResponseSubscribeAck  ResponseKind = "subscribe_ack"
	ResponseError         ResponseKind = "error"
)

// Response is the server-to-client reply frame for Append and Read, and the
// initial acknowledgement frame for Subscribe.
type Response struct {
	Kind      ResponseKind        `msgpack:"kind"`
	Receipt   *ledger.Receipt     `msgpack:"receipt,omitempty"`
	Envelopes []*envelope.Envelope `msgpack:"envelopes,omitempty"`
	Error     string              `msgpack:"error,omitempty"`
}

// Event is streamed to a subscribed client, one per appended envelope, on
// the same connection following a Subscribe's SubscribeAck.
type Event struct {
	Envelope *envelope.Envelope `msgpack:"envelope"`
}

const maxFrameBytes = 64 << 20 // 64 MiB; generous ceiling against a corrupt length prefix

// writeFrame msgpack-encodes v and writes it behind a 4-byte big-endian
// length prefix.
func writeFrame(w io.Writer, v interface{}) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("unixipc: encode frame: %w", err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("unixipc: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("unixipc: write frame body: %w", err)
	}
	return nil
}

// readFrame reads a 4-byte big-endian length prefix followed by that many
// msgpack-encoded bytes, decoding into v.
func readFrame(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err // EOF propagates unwrapped so callers can detect connection close
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameBytes {
		return fmt.Errorf("unixipc: frame of %d bytes exceeds max %d", n, maxFrameBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("unixipc: read frame body: %w", err)
	}
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unixipc: decode frame: %w", err)
	}
	return nil
}
