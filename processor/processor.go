// Package processor implements the hook pipeline that runs around every RPC.
//
// Request processors annotate the outgoing message (header, lease, clock
// identifier) and all of them run even when one fails, so headers are always
// attached. Response processors validate the incoming message and stop at the
// first failure.
package processor

import (
	"context"
	"sync"

	"pkt.systems/robocore/api"
)

// Call describes the RPC a processor is running for.
type Call struct {
	// Method is the full gRPC method name.
	Method string
	// DisableLogging mirrors the per-call logging flag.
	DisableLogging bool
}

// RequestProcessor inspects and may mutate an outgoing request.
type RequestProcessor interface {
	ProcessRequest(ctx context.Context, call Call, req api.Request) error
}

// ResponseProcessor validates an incoming response. A non-nil error is
// returned to the caller verbatim.
type ResponseProcessor interface {
	ProcessResponse(ctx context.Context, call Call, resp api.Response) error
}

// RequestFunc adapts a function to RequestProcessor.
type RequestFunc func(ctx context.Context, call Call, req api.Request) error

// ProcessRequest calls f.
func (f RequestFunc) ProcessRequest(ctx context.Context, call Call, req api.Request) error {
	return f(ctx, call, req)
}

// ResponseFunc adapts a function to ResponseProcessor.
type ResponseFunc func(ctx context.Context, call Call, resp api.Response) error

// ProcessResponse calls f.
func (f ResponseFunc) ProcessResponse(ctx context.Context, call Call, resp api.Response) error {
	return f(ctx, call, resp)
}

// Chain is an ordered list of request and response processors. It is safe for
// concurrent use; in practice it is populated when a robot is constructed and
// only read afterwards.
type Chain struct {
	mu       sync.RWMutex
	request  []RequestProcessor
	response []ResponseProcessor
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// AppendRequest adds processors after the existing request processors.
func (c *Chain) AppendRequest(p ...RequestProcessor) {
	c.mu.Lock()
	c.request = append(c.request, p...)
	c.mu.Unlock()
}

// PrependRequest adds processors before the existing request processors.
func (c *Chain) PrependRequest(p ...RequestProcessor) {
	c.mu.Lock()
	c.request = append(append([]RequestProcessor(nil), p...), c.request...)
	c.mu.Unlock()
}

// AppendResponse adds processors after the existing response processors.
func (c *Chain) AppendResponse(p ...ResponseProcessor) {
	c.mu.Lock()
	c.response = append(c.response, p...)
	c.mu.Unlock()
}

// PrependResponse adds processors before the existing response processors.
func (c *Chain) PrependResponse(p ...ResponseProcessor) {
	c.mu.Lock()
	c.response = append(append([]ResponseProcessor(nil), p...), c.response...)
	c.mu.Unlock()
}

// Clone returns an independent copy that can be extended without affecting c.
func (c *Chain) Clone() *Chain {
	if c == nil {
		return NewChain()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Chain{
		request:  append([]RequestProcessor(nil), c.request...),
		response: append([]ResponseProcessor(nil), c.response...),
	}
}

// Len returns the number of request and response processors.
func (c *Chain) Len() (request, response int) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.request), len(c.response)
}

// ProcessRequest runs every request processor in order and returns the first
// error encountered. A nil chain is a no-op.
func (c *Chain) ProcessRequest(ctx context.Context, call Call, req api.Request) error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	procs := c.request
	c.mu.RUnlock()
	var first error
	for _, p := range procs {
		if err := p.ProcessRequest(ctx, call, req); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ProcessResponse runs the response processors in order and stops at the
// first error.
func (c *Chain) ProcessResponse(ctx context.Context, call Call, resp api.Response) error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	procs := c.response
	c.mu.RUnlock()
	for _, p := range procs {
		if err := p.ProcessResponse(ctx, call, resp); err != nil {
			return err
		}
	}
	return nil
}
