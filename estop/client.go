package estop

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/status"
)

const (
	// ServiceName is the directory name of the E-Stop service.
	ServiceName = "estop"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.estop.EstopService"
)

var (
	registerMethod = client.Method[*api.RegisterEstopEndpointRequest, *api.RegisterEstopEndpointResponse]{
		Name: "RegisterEstopEndpoint",
		New:  func() *api.RegisterEstopEndpointResponse { return new(api.RegisterEstopEndpointResponse) },
		Check: func(resp *api.RegisterEstopEndpointResponse) status.Status {
			return status.FromResponse(status.EstopRegisterCategory, int32(resp.Status), "")
		},
	}
	deregisterMethod = client.Method[*api.DeregisterEstopEndpointRequest, *api.DeregisterEstopEndpointResponse]{
		Name: "DeregisterEstopEndpoint",
		New:  func() *api.DeregisterEstopEndpointResponse { return new(api.DeregisterEstopEndpointResponse) },
		Check: func(resp *api.DeregisterEstopEndpointResponse) status.Status {
			return status.FromResponse(status.EstopRegisterCategory, int32(resp.Status), "")
		},
	}
	getConfigMethod = client.Method[*api.GetEstopConfigRequest, *api.GetEstopConfigResponse]{
		Name: "GetEstopConfig",
		New:  func() *api.GetEstopConfigResponse { return new(api.GetEstopConfigResponse) },
	}
	setConfigMethod = client.Method[*api.SetEstopConfigRequest, *api.SetEstopConfigResponse]{
		Name: "SetEstopConfig",
		New:  func() *api.SetEstopConfigResponse { return new(api.SetEstopConfigResponse) },
		Check: func(resp *api.SetEstopConfigResponse) status.Status {
			return status.FromResponse(status.SetEstopConfigCategory, int32(resp.Status), "")
		},
	}
	checkInMethod = client.Method[*api.EstopCheckInRequest, *api.EstopCheckInResponse]{
		Name: "EstopCheckIn",
		New:  func() *api.EstopCheckInResponse { return new(api.EstopCheckInResponse) },
	}
	systemStatusMethod = client.Method[*api.GetEstopSystemStatusRequest, *api.GetEstopSystemStatusResponse]{
		Name: "GetEstopSystemStatus",
		New:  func() *api.GetEstopSystemStatusResponse { return new(api.GetEstopSystemStatusResponse) },
	}
)

// Service is the part of the E-Stop service an Endpoint needs.
type Service interface {
	Register(ctx context.Context, targetConfigID string, target, replacement *api.EstopEndpoint, params client.Params) (*api.EstopEndpoint, error)
	Deregister(ctx context.Context, targetConfigID string, target *api.EstopEndpoint, params client.Params) error
	GetConfig(ctx context.Context, targetConfigID string, params client.Params) (*api.EstopConfig, error)
	SetConfig(ctx context.Context, cfg *api.EstopConfig, targetConfigID string, params client.Params) (*api.EstopConfig, error)
	CheckIn(ctx context.Context, req *api.EstopCheckInRequest, ignoreStatus bool, params client.Params) (*api.EstopCheckInResponse, error)
}

// Client is the E-Stop service client.
type Client struct {
	base *client.Base
}

var _ Service = (*Client)(nil)

// NewClient returns an E-Stop client over conn.
func NewClient(conn grpc.ClientConnInterface, opts ...client.Option) *Client {
	return &Client{base: client.NewBase(conn, ServiceType, opts...)}
}

// Register replaces target with replacement in the configuration
// targetConfigID and returns the endpoint as the robot stored it.
func (c *Client) Register(ctx context.Context, targetConfigID string, target, replacement *api.EstopEndpoint, params client.Params) (*api.EstopEndpoint, error) {
	resp, err := client.Call(ctx, c.base, registerMethod, &api.RegisterEstopEndpointRequest{
		TargetEndpoint: target,
		TargetConfigID: targetConfigID,
		NewEndpoint:    replacement,
	}, params)
	if err != nil {
		return nil, err
	}
	return resp.NewEndpoint, nil
}

// Deregister removes target from the configuration targetConfigID.
func (c *Client) Deregister(ctx context.Context, targetConfigID string, target *api.EstopEndpoint, params client.Params) error {
	_, err := client.Call(ctx, c.base, deregisterMethod, &api.DeregisterEstopEndpointRequest{
		TargetEndpoint: target,
		TargetConfigID: targetConfigID,
	}, params)
	return err
}

// GetConfig returns the configuration targetConfigID, or the active one when
// targetConfigID is empty.
func (c *Client) GetConfig(ctx context.Context, targetConfigID string, params client.Params) (*api.EstopConfig, error) {
	resp, err := client.Call(ctx, c.base, getConfigMethod, &api.GetEstopConfigRequest{TargetConfigID: targetConfigID}, params)
	if err != nil {
		return nil, err
	}
	return resp.ActiveConfig, nil
}

// SetConfig replaces the active configuration, which must currently be
// targetConfigID.
func (c *Client) SetConfig(ctx context.Context, cfg *api.EstopConfig, targetConfigID string, params client.Params) (*api.EstopConfig, error) {
	resp, err := client.Call(ctx, c.base, setConfigMethod, &api.SetEstopConfigRequest{Config: cfg, TargetConfigID: targetConfigID}, params)
	if err != nil {
		return nil, err
	}
	return resp.ActiveConfig, nil
}

// CheckInAsync sends one check-in. With ignoreStatus the application status
// of the response is not interpreted.
func (c *Client) CheckInAsync(ctx context.Context, req *api.EstopCheckInRequest, ignoreStatus bool, params client.Params) *client.Future[*api.EstopCheckInResponse] {
	m := checkInMethod
	if !ignoreStatus {
		m.Check = func(resp *api.EstopCheckInResponse) status.Status {
			return status.FromResponse(status.EstopCheckInCategory, int32(resp.Status), "")
		}
	}
	return client.Unary(ctx, c.base, m, req, params)
}

// CheckIn is the synchronous form of CheckInAsync.
func (c *Client) CheckIn(ctx context.Context, req *api.EstopCheckInRequest, ignoreStatus bool, params client.Params) (*api.EstopCheckInResponse, error) {
	return c.CheckInAsync(ctx, req, ignoreStatus, params).Get(ctx)
}

// SystemStatus returns the robot's view of every endpoint.
func (c *Client) SystemStatus(ctx context.Context, params client.Params) (*api.EstopSystemStatus, error) {
	resp, err := client.Call(ctx, c.base, systemStatusMethod, &api.GetEstopSystemStatusRequest{}, params)
	if err != nil {
		return nil, err
	}
	return resp.Status, nil
}
