package client

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

// RequestStream sends reqs over a client stream and resolves with the single
// response. Every request passes through the request processors first.
func RequestStream[Req api.Request, Resp api.Response](ctx context.Context, b *Base, m Method[Req, Resp], reqs []Req, params Params) *Future[Resp] {
	call := callFor(b, m.Name, params)
	for _, req := range reqs {
		if err := b.chain.ProcessRequest(ctx, call, req); err != nil {
			return Resolved(Result[Resp]{Status: status.FromError(err), Response: m.newResponse()})
		}
	}
	f := newFuture[Resp]()
	go func() {
		cs := b.begin(ctx, m.Name, params)
		resp := m.newResponse()
		st := sendAll(cs, m.Name, reqs, resp)
		if st.OK() {
			st = processResponse(cs, m, resp)
		}
		cs.finish(st)
		f.resolve(Result[Resp]{Status: st, Response: resp})
	}()
	return f
}

func sendAll[Req any](cs *callState, name string, reqs []Req, resp any) status.Status {
	desc := &grpc.StreamDesc{StreamName: name, ClientStreams: true}
	stream, err := cs.base.conn.NewStream(cs.ctx, desc, cs.call.Method, cs.base.callOpts...)
	if err != nil {
		return status.FromError(err)
	}
	for _, req := range reqs {
		if err := stream.SendMsg(req); err != nil {
			if errors.Is(err, io.EOF) {
				// The server ended the stream; its status surfaces on receive.
				break
			}
			return streamStatus(err, status.RequestWriterFailed)
		}
	}
	if err := stream.CloseSend(); err != nil {
		return streamStatus(err, status.RequestWriterFailed)
	}
	if err := stream.RecvMsg(resp); err != nil {
		return streamStatus(err, status.ResponseReaderFailed)
	}
	return status.OK
}

// ResponseStream sends req and collects every streamed response. Each
// response passes through the response processors and the method check; the
// first failure ends the call.
func ResponseStream[Req api.Request, Resp api.Response](ctx context.Context, b *Base, m Method[Req, Resp], req Req, params Params) *Future[[]Resp] {
	call := callFor(b, m.Name, params)
	if err := b.chain.ProcessRequest(ctx, call, req); err != nil {
		return Resolved(Result[[]Resp]{Status: status.FromError(err)})
	}
	f := newFuture[[]Resp]()
	go func() {
		cs := b.begin(ctx, m.Name, params)
		resps, st := receiveAll(cs, m, req)
		cs.finish(st)
		f.resolve(Result[[]Resp]{Status: st, Response: resps})
	}()
	return f
}

func receiveAll[Req api.Request, Resp api.Response](cs *callState, m Method[Req, Resp], req Req) ([]Resp, status.Status) {
	desc := &grpc.StreamDesc{StreamName: m.Name, ServerStreams: true}
	stream, err := cs.base.conn.NewStream(cs.ctx, desc, cs.call.Method, cs.base.callOpts...)
	if err != nil {
		return nil, status.FromError(err)
	}
	if err := stream.SendMsg(req); err != nil && !errors.Is(err, io.EOF) {
		return nil, streamStatus(err, status.RequestWriterFailed)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, streamStatus(err, status.RequestWriterFailed)
	}
	var out []Resp
	for {
		resp := m.newResponse()
		err := stream.RecvMsg(resp)
		if errors.Is(err, io.EOF) {
			return out, status.OK
		}
		if err != nil {
			return out, streamStatus(err, status.ResponseReaderFailed)
		}
		if st := processResponse(cs, m, resp); !st.OK() {
			return out, st
		}
		out = append(out, resp)
	}
}

func callFor(b *Base, name string, params Params) processor.Call {
	return processor.Call{Method: b.FullMethod(name), DisableLogging: params.DisableLogging}
}

// streamStatus maps a stream error. Transport statuses keep their RPC code;
// anything else is reported as the supplied streaming code.
func streamStatus(err error, fallback status.Code) status.Status {
	st := status.FromError(err)
	if st.IsSDKError() {
		return status.New(fallback, err.Error())
	}
	return st
}
