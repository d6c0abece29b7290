package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Ledger-specific semantic convention attributes.
var (
	AttrChannel       = attribute.Key("ledger.channel")
	AttrEnvelopeHash  = attribute.Key("ledger.envelope_hash")
	AttrSignerKeyID   = attribute.Key("ledger.signer_key_id")
	AttrAdapterKind   = attribute.Key("ledger.adapter_kind")
	AttrSequence      = attribute.Key("ledger.sequence")
	AttrCASBackend    = attribute.Key("ledger.cas_backend")
	AttrMerkleLeafIdx = attribute.Key("ledger.merkle_leaf_index")
)

// AppendOperation creates attributes for an orchestrator.Append call.
func AppendOperation(channel string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrChannel.String(channel)}
}

// EnvelopeOperation creates attributes identifying one sealed envelope.
func EnvelopeOperation(channel, envelopeHash string, sequence uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrChannel.String(channel),
		AttrEnvelopeHash.String(envelopeHash),
		AttrSequence.Int64(int64(sequence)),
	}
}

// SignerOperation creates attributes for a signing or verification step.
func SignerOperation(channel, keyID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrChannel.String(channel),
		AttrSignerKeyID.String(keyID),
	}
}

// TransportOperation creates attributes for a transport-adapter event.
func TransportOperation(adapterKind string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrAdapterKind.String(adapterKind)}
}

// CASOperation creates attributes for a content-addressable-storage call.
func CASOperation(backend, digest string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrCASBackend.String(backend),
		AttrEnvelopeHash.String(digest),
	}
}

// MerkleOperation creates attributes for an inclusion-proof computation.
func MerkleOperation(channel string, leafIndex uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrChannel.String(channel),
		AttrMerkleLeafIdx.Int64(int64(leafIndex)),
	}
}

// SpanFromContext extracts the span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records an error, if any, on the current span.
func SetSpanStatus(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
}
