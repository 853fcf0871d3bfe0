package lease

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/loggingutil"
)

// DefaultRetainInterval is the keepalive cadence when none is configured.
const DefaultRetainInterval = 2 * time.Second

// Retainer is the part of the lease service a KeepAlive needs.
type Retainer interface {
	RetainLease(ctx context.Context, l Lease, params client.Params) (*api.LeaseUseResult, error)
	ReturnLease(ctx context.Context, l Lease, params client.Params) error
}

// FailureFunc is called on the keepalive goroutine after a failed retain or a
// wallet miss. Returning true stops the keepalive.
type FailureFunc func(err error) (stop bool)

// KeepAlive retains the wallet's lease for one resource in the background.
type KeepAlive struct {
	wallet           *Wallet
	retainer         Retainer
	resource         string
	interval         time.Duration
	onFailure        FailureFunc
	stopOnWalletMiss bool
	returnAtShutdown bool
	params           client.Params
	clock            clock.Clock
	logger           pslog.Logger
	metrics          *keepAliveMetrics

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// KeepAliveOption customises a KeepAlive.
type KeepAliveOption func(*KeepAlive)

// WithInterval sets the retain cadence. Zero or negative selects
// DefaultRetainInterval.
func WithInterval(d time.Duration) KeepAliveOption {
	return func(k *KeepAlive) {
		k.interval = d
	}
}

// WithOnFailure installs the failure callback. Without one, failures are
// logged and the loop continues.
func WithOnFailure(fn FailureFunc) KeepAliveOption {
	return func(k *KeepAlive) {
		k.onFailure = fn
	}
}

// WithStopOnWalletMiss stops the loop as soon as the wallet no longer holds
// the resource, after the failure callback has run. By default a miss is
// reported but not fatal.
func WithStopOnWalletMiss(stop bool) KeepAliveOption {
	return func(k *KeepAlive) {
		k.stopOnWalletMiss = stop
	}
}

// WithReturnAtShutdown returns the lease to the robot when the keepalive is
// stopped.
func WithReturnAtShutdown(enabled bool) KeepAliveOption {
	return func(k *KeepAlive) {
		k.returnAtShutdown = enabled
	}
}

// WithRPCParams sets the parameters of each retain call.
func WithRPCParams(p client.Params) KeepAliveOption {
	return func(k *KeepAlive) {
		k.params = p
	}
}

// WithKeepAliveClock overrides the local clock.
func WithKeepAliveClock(c clock.Clock) KeepAliveOption {
	return func(k *KeepAlive) {
		k.clock = c
	}
}

// WithKeepAliveLogger supplies a logger.
func WithKeepAliveLogger(logger pslog.Logger) KeepAliveOption {
	return func(k *KeepAlive) {
		k.logger = logger
	}
}

// NewKeepAlive starts retaining the lease for resource. Stop the keepalive
// with Stop; it must not be copied.
func NewKeepAlive(wallet *Wallet, retainer Retainer, resource string, opts ...KeepAliveOption) *KeepAlive {
	k := &KeepAlive{
		wallet:   wallet,
		retainer: retainer,
		resource: resource,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	if k.resource == "" {
		k.resource = DefaultResource
	}
	if k.interval <= 0 {
		k.interval = DefaultRetainInterval
	}
	k.clock = clock.Or(k.clock)
	k.logger = loggingutil.Subsystem(k.logger, "lease.keepalive").With("resource", k.resource)
	k.metrics = sharedKeepAliveMetrics(k.logger)
	k.ctx, k.cancel = context.WithCancel(context.Background())
	go k.run()
	return k
}

// Resource returns the retained resource.
func (k *KeepAlive) Resource() string { return k.resource }

// Done is closed when the loop has exited, either through Stop or because
// the failure policy ended it.
func (k *KeepAlive) Done() <-chan struct{} { return k.done }

// IsAlive reports whether the loop is still running.
func (k *KeepAlive) IsAlive() bool {
	select {
	case <-k.done:
		return false
	default:
		return true
	}
}

// Stop ends the loop and waits for it to exit. When configured, the lease is
// then returned to the robot. Stop is idempotent.
func (k *KeepAlive) Stop() {
	k.stopOnce.Do(func() {
		k.cancel()
		<-k.done
		if !k.returnAtShutdown {
			return
		}
		l, err := k.wallet.GetLease(k.resource)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), k.params.EffectiveTimeout())
		defer cancel()
		if err := k.retainer.ReturnLease(ctx, l, k.params); err != nil {
			k.logger.Warn("lease.keepalive.return_failed", "error", err)
			return
		}
		k.logger.Info("lease.keepalive.returned", "lease", l.String())
	})
}

func (k *KeepAlive) run() {
	defer close(k.done)
	k.logger.Debug("lease.keepalive.start", "interval", k.interval)
	for {
		start := k.clock.Now()
		if k.ctx.Err() != nil {
			return
		}
		if k.retainOnce() {
			k.logger.Info("lease.keepalive.stopped_by_policy")
			return
		}
		select {
		case <-k.ctx.Done():
			return
		case <-k.clock.After(clock.Remaining(k.clock, start, k.interval)):
		}
	}
}

// retainOnce performs one iteration and reports whether the loop should stop.
func (k *KeepAlive) retainOnce() bool {
	l, err := k.wallet.GetLease(k.resource)
	if err != nil {
		k.metrics.record(k.ctx, "wallet_miss")
		k.logger.Debug("lease.keepalive.wallet_miss", "error", err)
		stop := k.fail(err)
		return stop || k.stopOnWalletMiss
	}
	if _, err := k.retainer.RetainLease(k.ctx, l, k.params); err != nil {
		if k.ctx.Err() != nil {
			return true
		}
		k.metrics.record(k.ctx, "error")
		k.logger.Debug("lease.keepalive.retain_failed", "lease", l.String(), "error", err)
		return k.fail(err)
	}
	k.metrics.record(k.ctx, "success")
	return false
}

func (k *KeepAlive) fail(err error) bool {
	if k.onFailure == nil {
		k.logger.Warn("lease.keepalive.failure", "error", err)
		return false
	}
	return k.onFailure(err)
}
