// Package auth exchanges robot credentials for bearer tokens.
package auth

import (
	"context"

	"google.golang.org/grpc"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/status"
)

const (
	// ServiceName is the directory name of the auth service.
	ServiceName = "auth"
	// ServiceType is the fully qualified gRPC service.
	ServiceType = "robocore.auth.AuthService"
	// Authority is where the auth service is reachable before any directory
	// lookup is possible.
	Authority = "auth.spot.robot"
)

var tokenMethod = client.Method[*api.GetAuthTokenRequest, *api.GetAuthTokenResponse]{
	Name: "GetAuthToken",
	New:  func() *api.GetAuthTokenResponse { return new(api.GetAuthTokenResponse) },
	Check: func(resp *api.GetAuthTokenResponse) status.Status {
		return status.FromResponse(status.AuthCategory, int32(resp.Status), "")
	},
}

// Client is the auth service client.
type Client struct {
	base *client.Base
}

// NewClient returns an auth client over conn.
func NewClient(conn grpc.ClientConnInterface, opts ...client.Option) *Client {
	return &Client{base: client.NewBase(conn, ServiceType, opts...)}
}

// Token exchanges a username and password for a token.
func (c *Client) Token(ctx context.Context, username, password string, params client.Params) (string, error) {
	params.DisableLogging = true
	return c.token(ctx, &api.GetAuthTokenRequest{Username: username, Password: password}, params)
}

// Refresh exchanges a valid token for a fresh one.
func (c *Client) Refresh(ctx context.Context, token string, params client.Params) (string, error) {
	params.DisableLogging = true
	return c.token(ctx, &api.GetAuthTokenRequest{Token: token}, params)
}

func (c *Client) token(ctx context.Context, req *api.GetAuthTokenRequest, params client.Params) (string, error) {
	resp, err := client.Call(ctx, c.base, tokenMethod, req, params)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", status.New(status.Unauthenticated, "auth service returned an empty token")
	}
	return resp.Token, nil
}
