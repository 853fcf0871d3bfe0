package timesync

import (
	"context"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/pslog"

	"pkt.systems/robocore/client"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/status"
)

const (
	// DefaultSyncInterval is the sampling cadence once sync is established.
	DefaultSyncInterval = 60 * time.Second
	// ServiceUnavailableBackoff is the pause after the time-sync service
	// could not be reached.
	ServiceUnavailableBackoff = 5 * time.Second
	// RetryInterval is the pause after any other failed exchange.
	RetryInterval = time.Second
)

// Keeper runs an Endpoint in the background. It is created stopped; Start
// launches the loop and Stop joins it. A Keeper must not be copied.
type Keeper struct {
	endpoint *Endpoint
	interval time.Duration
	params   client.Params
	clock    clock.Clock
	logger   pslog.Logger
	metrics  *keeperMetrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	changed chan struct{}
}

// KeeperOption customises a Keeper.
type KeeperOption func(*Keeper)

// WithSyncInterval sets the cadence once sync is established. Zero or
// negative selects DefaultSyncInterval.
func WithSyncInterval(d time.Duration) KeeperOption {
	return func(k *Keeper) {
		k.interval = d
	}
}

// WithKeeperParams sets the parameters of each exchange.
func WithKeeperParams(p client.Params) KeeperOption {
	return func(k *Keeper) {
		k.params = p
	}
}

// WithKeeperClock overrides the clock that paces the loop.
func WithKeeperClock(c clock.Clock) KeeperOption {
	return func(k *Keeper) {
		k.clock = c
	}
}

// WithKeeperLogger supplies a logger.
func WithKeeperLogger(logger pslog.Logger) KeeperOption {
	return func(k *Keeper) {
		k.logger = logger
	}
}

// NewKeeper returns a stopped keeper for endpoint.
func NewKeeper(endpoint *Endpoint, opts ...KeeperOption) *Keeper {
	k := &Keeper{
		endpoint: endpoint,
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	if k.interval <= 0 {
		k.interval = DefaultSyncInterval
	}
	k.clock = clock.Or(k.clock)
	k.logger = loggingutil.Subsystem(k.logger, "timesync.keeper")
	k.metrics = sharedKeeperMetrics(k.logger)
	return k
}

// Endpoint returns the endpoint the keeper drives. It stays readable after
// Stop and reports the last known estimate.
func (k *Keeper) Endpoint() *Endpoint { return k.endpoint }

// Start launches the loop. Calling Start on a running keeper is a no-op; a
// stopped keeper resumes.
func (k *Keeper) Start() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.done = make(chan struct{})
	go k.run(ctx, k.done)
}

// Resume is Start; it reads better after Stop.
func (k *Keeper) Resume() { k.Start() }

// Stop ends the loop and waits for it to exit. Stop is idempotent.
func (k *Keeper) Stop() {
	k.mu.Lock()
	cancel, done := k.cancel, k.done
	k.cancel, k.done = nil, nil
	k.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	k.notify()
}

// Running reports whether the loop is active.
func (k *Keeper) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.done != nil
}

// HasEstablishedTimeSync reports the endpoint's sync state.
func (k *Keeper) HasEstablishedTimeSync() bool {
	return k.endpoint.HasEstablishedTimeSync()
}

// WaitForSync blocks until sync is established or ctx ends, in which case it
// returns TimeSyncNotEstablished.
func (k *Keeper) WaitForSync(ctx context.Context) error {
	for {
		k.mu.Lock()
		changed := k.changed
		k.mu.Unlock()
		if k.endpoint.HasEstablishedTimeSync() {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return status.Newf(status.TimeSyncNotEstablished, "time sync not established: %v", ctx.Err())
		}
	}
}

// ClockIdentifier returns the identifier of the robot clock.
func (k *Keeper) ClockIdentifier() string {
	return k.endpoint.ClockIdentifier()
}

// Converter returns a converter for the latest skew.
func (k *Keeper) Converter() (Converter, error) {
	return k.endpoint.Converter()
}

// RobotTimestampFromLocal converts a local instant into robot time.
func (k *Keeper) RobotTimestampFromLocal(local time.Time) (*timestamppb.Timestamp, error) {
	return k.endpoint.RobotTimestampFromLocal(local)
}

// RobotNow returns the current robot time.
func (k *Keeper) RobotNow() (time.Time, error) {
	c, err := k.endpoint.Converter()
	if err != nil {
		return time.Time{}, err
	}
	return c.RobotTime(k.clock.Now()), nil
}

// notify wakes every WaitForSync caller so it re-reads the endpoint.
func (k *Keeper) notify() {
	k.mu.Lock()
	close(k.changed)
	k.changed = make(chan struct{})
	k.mu.Unlock()
}

func (k *Keeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	k.logger.Debug("timesync.keeper.start", "interval", k.interval)
	for {
		wait := k.sample(ctx)
		if ctx.Err() != nil {
			return
		}
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-k.clock.After(wait):
		}
	}
}

// sample performs one exchange and returns how long to wait before the next.
func (k *Keeper) sample(ctx context.Context) time.Duration {
	wasEstablished := k.endpoint.HasEstablishedTimeSync()
	err := k.endpoint.Update(ctx, k.params)
	k.notify()
	if ctx.Err() != nil {
		return 0
	}
	established := k.endpoint.HasEstablishedTimeSync()
	switch {
	case err != nil && serviceUnavailable(err):
		k.logger.Debug("timesync.keeper.service_unavailable", "error", err, "backoff", ServiceUnavailableBackoff)
		return ServiceUnavailableBackoff
	case err != nil && status.Is(err, status.TimeSyncClockChanged):
		k.logger.Warn("timesync.keeper.clock_changed", "error", err)
		return 0
	case err != nil:
		k.logger.Debug("timesync.keeper.update_failed", "error", err)
		if established {
			return k.interval
		}
		return RetryInterval
	case !established:
		return 0
	}
	skew, _ := k.endpoint.ClockSkew()
	rtt, _ := k.endpoint.RoundTripTime()
	k.metrics.record(ctx, skew, rtt)
	if !wasEstablished {
		k.logger.Info("timesync.keeper.established",
			"clock_identifier", k.endpoint.ClockIdentifier(),
			"skew", skew,
			"rtt", rtt,
		)
	}
	return k.interval
}

func serviceUnavailable(err error) bool {
	switch status.FromError(err).Code() {
	case status.Unimplemented, status.NotFound, status.ServiceUnavailable, status.UnableToConnectToRobot, status.NonExistentServiceName:
		return true
	default:
		return false
	}
}
