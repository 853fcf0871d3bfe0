// Package client is the service-client base every robot service client is
// built on. It drives one RPC through the request processors, the gRPC
// transport and the response processors, and hands the outcome back as a
// Future of Result.
//
// # Call shapes
//
// Three shapes are supported, each taking a Method descriptor:
//
//   - Unary: one request, one response.
//   - RequestStream: a slice of requests (usually chunks) and one response.
//   - ResponseStream: one request and a slice of responses.
//
// A typical service client declares its methods once and wraps them in
// synchronous helpers:
//
//	var getEntry = client.Method[*api.GetServiceEntryRequest, *api.GetServiceEntryResponse]{
//	    Name: "GetServiceEntry",
//	    New:  func() *api.GetServiceEntryResponse { return new(api.GetServiceEntryResponse) },
//	}
//
//	func (c *Client) GetEntry(ctx context.Context, name string, p client.Params) (*api.ServiceEntry, error) {
//	    resp, err := client.Unary(ctx, c.base, getEntry, &api.GetServiceEntryRequest{ServiceName: name}, p).Get(ctx)
//	    ...
//	}
//
// Every error returned by this package is a status.Status; transport failures
// are mapped with status.FromGRPCError.
//
// Messages travel with the "json" gRPC codec registered by this package.
// Large payloads can be split with SplitChunks and reassembled with
// JoinChunks, which rejects chunks whose correlation ids disagree.
package client
