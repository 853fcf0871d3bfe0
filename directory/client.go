// Package directory resolves robot services by name.
package directory

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/status"
)

const (
	// ServiceName is the directory name of the directory service itself.
	ServiceName = "directory"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.directory.DirectoryService"
	// Authority is where the directory service is reachable.
	Authority = "api.spot.robot"
)

var (
	getMethod = client.Method[*api.GetServiceEntryRequest, *api.GetServiceEntryResponse]{
		Name: "GetServiceEntry",
		New:  func() *api.GetServiceEntryResponse { return new(api.GetServiceEntryResponse) },
		Check: func(resp *api.GetServiceEntryResponse) status.Status {
			return status.FromResponse(status.DirectoryCategory, int32(resp.Status), "")
		},
	}
	listMethod = client.Method[*api.ListServiceEntriesRequest, *api.ListServiceEntriesResponse]{
		Name: "ListServiceEntries",
		New:  func() *api.ListServiceEntriesResponse { return new(api.ListServiceEntriesResponse) },
	}
)

// Client is the directory service client.
type Client struct {
	base *client.Base
}

// NewClient returns a directory client over conn.
func NewClient(conn grpc.ClientConnInterface, opts ...client.Option) *Client {
	return &Client{base: client.NewBase(conn, ServiceType, opts...)}
}

// GetServiceEntry resolves name. An unknown name fails with
// NonExistentServiceName.
func (c *Client) GetServiceEntry(ctx context.Context, name string, params client.Params) (*api.ServiceEntry, error) {
	resp, err := client.Call(ctx, c.base, getMethod, &api.GetServiceEntryRequest{ServiceName: name}, params)
	if err != nil {
		st := status.FromError(err)
		if st.Code() == status.DirectoryCategory.Code(int32(api.GetServiceEntryStatusNonexistent)) {
			return nil, st.ChainCode(status.NonExistentServiceName, "service "+name)
		}
		return nil, err
	}
	if resp.ServiceEntry == nil {
		return nil, status.Newf(status.NonExistentServiceName, "directory returned no entry for %q", name)
	}
	return resp.ServiceEntry, nil
}

// ListServiceEntries returns every registered service.
func (c *Client) ListServiceEntries(ctx context.Context, params client.Params) ([]*api.ServiceEntry, error) {
	resp, err := client.Call(ctx, c.base, listMethod, &api.ListServiceEntriesRequest{}, params)
	if err != nil {
		return nil, err
	}
	return resp.ServiceEntries, nil
}
