package timesync

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
)

const (
	// ServiceName is the directory name of the time-sync service.
	ServiceName = "time-sync"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.timesync.TimeSyncService"
)

var updateMethod = client.Method[*api.TimeSyncUpdateRequest, *api.TimeSyncUpdateResponse]{
	Name: "TimeSyncUpdate",
	New:  func() *api.TimeSyncUpdateResponse { return new(api.TimeSyncUpdateResponse) },
}

// Updater performs one time-sync exchange.
type Updater interface {
	TimeSyncUpdate(ctx context.Context, req *api.TimeSyncUpdateRequest, params client.Params) (*api.TimeSyncUpdateResponse, error)
}

// Client is the time-sync service client.
type Client struct {
	base *client.Base
}

// NewClient returns a time-sync client over conn.
func NewClient(conn grpc.ClientConnInterface, opts ...client.Option) *Client {
	return &Client{base: client.NewBase(conn, ServiceType, opts...)}
}

// TimeSyncUpdateAsync starts one exchange.
func (c *Client) TimeSyncUpdateAsync(ctx context.Context, req *api.TimeSyncUpdateRequest, params client.Params) *client.Future[*api.TimeSyncUpdateResponse] {
	return client.Unary(ctx, c.base, updateMethod, req, params)
}

// TimeSyncUpdate performs one exchange. The application status inside the
// returned state is interpreted by Endpoint, not here.
func (c *Client) TimeSyncUpdate(ctx context.Context, req *api.TimeSyncUpdateRequest, params client.Params) (*api.TimeSyncUpdateResponse, error) {
	return c.TimeSyncUpdateAsync(ctx, req, params).Get(ctx)
}
