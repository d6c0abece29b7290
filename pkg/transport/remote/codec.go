// Package remote implements the bidirectional streaming transport (spec
// component N): three gRPC streaming methods (Append, Read, Subscribe)
// registered by hand via a grpc.ServiceDesc rather than protoc-generated
// stubs (SPEC_FULL §4.N.1), so the real gRPC transport — HTTP/2 multiplexed
// streams, deadlines, flow-control-aware backpressure — is exercised
// without a code-generation step.
package remote

import (
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc/encoding"
)

const codecName = "msgpack"

// msgpackCodec lets grpc-go marshal/unmarshal our hand-written message
// structs directly, standing in for the protobuf codec a protoc pipeline
// would otherwise register.
type msgpackCodec struct{}

func (msgpackCodec) Marshal(v interface{}) ([]byte, error)   { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (msgpackCodec) Name() string                             { return codecName }

func init() {
	encoding.RegisterCodec(msgpackCodec{})
}
