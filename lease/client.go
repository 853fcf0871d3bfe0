package lease

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

const (
	// ServiceName is the directory name of the lease service.
	ServiceName = "lease"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.lease.LeaseService"
)

var (
	acquireMethod = client.Method[*api.AcquireLeaseRequest, *api.AcquireLeaseResponse]{
		Name: "AcquireLease",
		New:  func() *api.AcquireLeaseResponse { return new(api.AcquireLeaseResponse) },
	}
	takeMethod = client.Method[*api.TakeLeaseRequest, *api.TakeLeaseResponse]{
		Name: "TakeLease",
		New:  func() *api.TakeLeaseResponse { return new(api.TakeLeaseResponse) },
	}
	returnMethod = client.Method[*api.ReturnLeaseRequest, *api.ReturnLeaseResponse]{
		Name: "ReturnLease",
		New:  func() *api.ReturnLeaseResponse { return new(api.ReturnLeaseResponse) },
	}
	retainMethod = client.Method[*api.RetainLeaseRequest, *api.RetainLeaseResponse]{
		Name: "RetainLease",
		New:  func() *api.RetainLeaseResponse { return new(api.RetainLeaseResponse) },
	}
	listMethod = client.Method[*api.ListLeasesRequest, *api.ListLeasesResponse]{
		Name: "ListLeases",
		New:  func() *api.ListLeasesResponse { return new(api.ListLeasesResponse) },
	}
)

// Client talks to the robot lease service and keeps the wallet in step with
// what the robot grants.
type Client struct {
	base   *client.Base
	wallet *Wallet
}

// NewClient returns a lease service client. Lease use results in responses
// are fed into wallet.
func NewClient(conn grpc.ClientConnInterface, wallet *Wallet, opts ...client.Option) *Client {
	c := &Client{
		base:   client.NewBase(conn, ServiceType, opts...),
		wallet: wallet,
	}
	c.base.ExtendChain(func(chain *processor.Chain) {
		chain.AppendResponse(NewResponseProcessor(wallet))
	})
	return c
}

// Wallet returns the wallet the client updates.
func (c *Client) Wallet() *Wallet { return c.wallet }

// AcquireLeaseAsync asks for resource. On success the lease enters the
// wallet, subject to the wallet's dominance rule.
func (c *Client) AcquireLeaseAsync(ctx context.Context, resource string, params client.Params) *client.Future[*api.AcquireLeaseResponse] {
	m := acquireMethod
	m.Check = func(resp *api.AcquireLeaseResponse) status.Status {
		st := status.FromResponse(status.AcquireLeaseCategory, int32(resp.Status), "")
		if !st.OK() {
			return st.Chain("acquire " + resource)
		}
		if c.wallet != nil {
			if err := c.wallet.AddLease(FromProto(resp.Lease)); err != nil {
				return status.FromError(err)
			}
		}
		return status.OK
	}
	return client.Unary(ctx, c.base, m, &api.AcquireLeaseRequest{Resource: resource}, params)
}

// AcquireLease is the synchronous form of AcquireLeaseAsync.
func (c *Client) AcquireLease(ctx context.Context, resource string, params client.Params) (Lease, error) {
	resp, err := c.AcquireLeaseAsync(ctx, resource, params).Get(ctx)
	if err != nil {
		return Lease{}, err
	}
	return FromProto(resp.Lease), nil
}

// TakeLease forcibly takes resource from its current owner. The taken lease
// replaces whatever the wallet held.
func (c *Client) TakeLease(ctx context.Context, resource string, params client.Params) (Lease, error) {
	m := takeMethod
	m.Check = func(resp *api.TakeLeaseResponse) status.Status {
		st := status.FromResponse(status.TakeLeaseCategory, int32(resp.Status), "")
		if !st.OK() {
			return st.Chain("take " + resource)
		}
		if c.wallet != nil {
			if err := c.wallet.ReplaceLease(FromProto(resp.Lease)); err != nil {
				return status.FromError(err)
			}
		}
		return status.OK
	}
	resp, err := client.Call(ctx, c.base, m, &api.TakeLeaseRequest{Resource: resource}, params)
	if err != nil {
		return Lease{}, err
	}
	return FromProto(resp.Lease), nil
}

// ReturnLease hands l back to the robot and removes it from the wallet.
func (c *Client) ReturnLease(ctx context.Context, l Lease, params client.Params) error {
	m := returnMethod
	m.Check = func(resp *api.ReturnLeaseResponse) status.Status {
		st := status.FromResponse(status.ReturnLeaseCategory, int32(resp.Status), "")
		if !st.OK() {
			return st.Chain("return " + l.Resource)
		}
		if c.wallet != nil {
			_ = c.wallet.RemoveLease(l.Resource)
		}
		return status.OK
	}
	_, err := client.Call(ctx, c.base, m, &api.ReturnLeaseRequest{Lease: l.Proto()}, params)
	return err
}

// RetainLeaseAsync keeps l alive on the robot. The wallet is not advanced; a
// rejected lease is dropped from it by the response processor.
func (c *Client) RetainLeaseAsync(ctx context.Context, l Lease, params client.Params) *client.Future[*api.RetainLeaseResponse] {
	return client.Unary(ctx, c.base, retainMethod, &api.RetainLeaseRequest{Lease: l.Proto()}, params)
}

// RetainLease is the synchronous form of RetainLeaseAsync.
func (c *Client) RetainLease(ctx context.Context, l Lease, params client.Params) (*api.LeaseUseResult, error) {
	resp, err := c.RetainLeaseAsync(ctx, l, params).Get(ctx)
	if resp == nil {
		return nil, err
	}
	return resp.LeaseUseResult, err
}

// ListLeases returns the robot's view of every resource.
func (c *Client) ListLeases(ctx context.Context, includeFull bool, params client.Params) ([]*api.LeaseResource, error) {
	resp, err := client.Call(ctx, c.base, listMethod, &api.ListLeasesRequest{IncludeFullLeaseInfo: includeFull}, params)
	if err != nil {
		return nil, err
	}
	return resp.Resources, nil
}
