package processor

import (
	"context"

	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/status"
)

// CommonRequest stamps the client name, the local request timestamp and the
// logging flag on every request header.
type CommonRequest struct {
	ClientName string
	Clock      clock.Clock
}

// ProcessRequest implements RequestProcessor.
func (p CommonRequest) ProcessRequest(_ context.Context, call Call, req api.Request) error {
	header := req.GetHeader()
	if header == nil {
		header = &api.RequestHeader{}
		req.SetHeader(header)
	}
	header.ClientName = p.ClientName
	header.RequestTimestamp = timestamppb.New(clock.Or(p.Clock).Now())
	header.DisableRPCLogging = call.DisableLogging
	return nil
}

// CommonResponse turns the common error of the response header into a
// status. A missing header or error is a success.
type CommonResponse struct{}

// ProcessResponse implements ResponseProcessor.
func (CommonResponse) ProcessResponse(_ context.Context, _ Call, resp api.Response) error {
	header := resp.GetHeader()
	if header == nil || header.Error == nil {
		return nil
	}
	return status.FromResponse(status.CommonErrorCategory, int32(header.Error.Code), header.Error.Message).Err()
}

// Default returns a chain holding the always-installed processors.
func Default(clientName string, clk clock.Clock) *Chain {
	c := NewChain()
	c.AppendRequest(CommonRequest{ClientName: clientName, Clock: clk})
	c.AppendResponse(CommonResponse{})
	return c
}
