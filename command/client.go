package command

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

const (
	// ServiceName is the directory name of the robot command service.
	ServiceName = "robot-command"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.command.RobotCommandService"
)

var commandMethod = client.Method[*api.RobotCommandRequest, *api.RobotCommandResponse]{
	Name: "RobotCommand",
	New:  func() *api.RobotCommandResponse { return new(api.RobotCommandResponse) },
	Check: func(resp *api.RobotCommandResponse) status.Status {
		return status.FromResponse(status.RobotCommandCategory, int32(resp.Status), resp.Message)
	},
}

// Client is the robot command service client.
type Client struct {
	base     *client.Base
	envelope Envelope
}

// NewClient returns a robot command client. Lease use results are fed into
// the envelope's wallet.
func NewClient(conn grpc.ClientConnInterface, envelope Envelope, opts ...client.Option) *Client {
	c := &Client{
		base:     client.NewBase(conn, ServiceType, opts...),
		envelope: envelope,
	}
	if envelope.Wallet != nil {
		c.base.ExtendChain(func(chain *processor.Chain) {
			chain.AppendResponse(lease.NewResponseProcessor(envelope.Wallet))
		})
	}
	return c
}

// RobotCommandAsync stamps cmd and sends it. cmd is not modified.
func (c *Client) RobotCommandAsync(ctx context.Context, cmd *api.RobotCommand, params client.Params) *client.Future[*api.RobotCommandResponse] {
	req, err := c.envelope.Stamp(&api.RobotCommandRequest{Command: cmd})
	if err != nil {
		c.base.Logger().Debug("command.stamp_failed", "error", err)
		return client.Resolved(client.Result[*api.RobotCommandResponse]{
			Status:   status.FromError(err),
			Response: new(api.RobotCommandResponse),
		})
	}
	return client.Unary(ctx, c.base, commandMethod, req, params)
}

// RobotCommand sends cmd and returns the robot's command id.
func (c *Client) RobotCommand(ctx context.Context, cmd *api.RobotCommand, params client.Params) (uint32, error) {
	resp, err := c.RobotCommandAsync(ctx, cmd, params).Get(ctx)
	if err != nil {
		return 0, err
	}
	return resp.RobotCommandID, nil
}
