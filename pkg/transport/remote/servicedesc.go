package remote

import "google.golang.org/grpc"

// ServiceName identifies the hand-registered service on the wire, in place
// of a protoc-generated fully-qualified name.
const ServiceName = "ledger.Transport"

func appendStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(*Server).handleAppendStream(stream)
}

func readStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(*Server).handleReadStream(stream)
}

func subscribeStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(*Server).handleSubscribeStream(stream)
}

var appendStreamDesc = grpc.StreamDesc{
	StreamName:    "Append",
	Handler:       appendStreamHandler,
	ServerStreams: true,
	ClientStreams: true,
}

var readStreamDesc = grpc.StreamDesc{
	StreamName:    "Read",
	Handler:       readStreamHandler,
	ServerStreams: true,
	ClientStreams: true,
}

var subscribeStreamDesc = grpc.StreamDesc{
	StreamName:    "Subscribe",
	Handler:       subscribeStreamHandler,
	ServerStreams: true,
	ClientStreams: true,
}

// ServiceDesc is registered on a *grpc.Server via RegisterService, the
// hand-rolled equivalent of a protoc-gen-go-grpc _ServiceDesc.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods:     nil,
	Streams:     []grpc.StreamDesc{appendStreamDesc, readStreamDesc, subscribeStreamDesc},
	Metadata:    "ledger/transport.proto",
}
