package client

import (
	"context"

	"google.golang.org/grpc/credentials"
)

// TokenSource returns the current bearer token, or "" when none is held.
type TokenSource func() string

type bearerCredentials struct {
	token      TokenSource
	requireTLS bool
}

// BearerCredentials attaches "authorization: Bearer <token>" to every call.
// Calls made while the source returns "" carry no authorization.
func BearerCredentials(token TokenSource, requireTLS bool) credentials.PerRPCCredentials {
	return bearerCredentials{token: token, requireTLS: requireTLS}
}

func (c bearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	if c.token == nil {
		return nil, nil
	}
	tok := c.token()
	if tok == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + tok}, nil
}

func (c bearerCredentials) RequireTransportSecurity() bool {
	return c.requireTLS
}
