package client_test

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"google.golang.org/grpc"
)

// fakeConn answers unary calls with a handler and copies the handler's reply
// into the caller's message through the wire codec.
type fakeConn struct {
	calls   atomic.Int32
	handler func(ctx context.Context, method string, req any) (any, error)
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args any, reply any, _ ...grpc.CallOption) error {
	f.calls.Add(1)
	out, err := f.handler(ctx, method, args)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, reply)
}

func (f *fakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	panic("streams are exercised over bufconn")
}
