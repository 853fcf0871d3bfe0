package client

import "time"

// DefaultTimeout bounds a call whose Params carry no timeout.
const DefaultTimeout = 30 * time.Second

// Params are the per-call RPC parameters.
type Params struct {
	// Timeout bounds the call. Zero or negative means DefaultTimeout.
	Timeout time.Duration
	// DisableLogging suppresses client-side call logging and asks the robot
	// not to log the request.
	DisableLogging bool
}

// EffectiveTimeout returns the timeout the transport will apply.
func (p Params) EffectiveTimeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}
