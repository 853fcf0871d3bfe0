package estop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/status"
)

// MinCheckInInterval is used when the configured or derived interval is not
// positive.
const MinCheckInInterval = 100 * time.Millisecond

// Health is the keepalive's view of its endpoint.
type Health uint8

const (
	// HealthOK means the last check-in succeeded.
	HealthOK Health = iota
	// HealthError means the last check-in failed; the loop keeps trying.
	HealthError
	// HealthDisabled means the robot no longer knows the endpoint. The loop
	// has exited and the state does not change again.
	HealthDisabled
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "OK"
	case HealthError:
		return "ERROR"
	case HealthDisabled:
		return "DISABLED"
	default:
		return fmt.Sprintf("Health(%d)", uint8(h))
	}
}

// Event is one health report.
type Event struct {
	Health  Health
	Message string
	At      time.Time
}

// KeepAlive checks an Endpoint in at the desired stop level in the
// background. It must not be copied.
type KeepAlive struct {
	endpoint   *Endpoint
	rpcTimeout time.Duration
	interval   time.Duration
	clock      clock.Clock
	logger     pslog.Logger
	metrics    *checkInMetrics

	mu           sync.Mutex
	level        api.EstopStopLevel
	health       Health
	message      string
	levelChanged chan struct{}
	events       chan Event

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

// KeepAliveOption customises a KeepAlive.
type KeepAliveOption func(*KeepAlive)

// WithRPCTimeout bounds each check-in. The default is the endpoint timeout.
func WithRPCTimeout(d time.Duration) KeepAliveOption {
	return func(k *KeepAlive) {
		k.rpcTimeout = d
	}
}

// WithCheckInInterval sets the check-in cadence. The default is a third of
// the endpoint timeout.
func WithCheckInInterval(d time.Duration) KeepAliveOption {
	return func(k *KeepAlive) {
		k.interval = d
	}
}

// WithInitialLevel sets the level of the first check-in. The default is
// NONE, which allows the robot to move.
func WithInitialLevel(level api.EstopStopLevel) KeepAliveOption {
	return func(k *KeepAlive) {
		k.level = level
	}
}

// WithEventBuffer sets the capacity of the Events channel. Events that do
// not fit are dropped.
func WithEventBuffer(n int) KeepAliveOption {
	return func(k *KeepAlive) {
		if n >= 0 {
			k.events = make(chan Event, n)
		}
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

// NewKeepAlive starts checking endpoint in. Shut it down with Shutdown.
func NewKeepAlive(endpoint *Endpoint, opts ...KeepAliveOption) *KeepAlive {
	k := &KeepAlive{
		endpoint:     endpoint,
		level:        api.EstopStopLevelNone,
		health:       HealthError,
		message:      "no check-in yet",
		levelChanged: make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(k)
		}
	}
	if k.rpcTimeout <= 0 {
		k.rpcTimeout = endpoint.Timeout()
	}
	if k.interval <= 0 {
		k.interval = endpoint.Timeout() / 3
	}
	if k.interval <= 0 {
		k.interval = MinCheckInInterval
	}
	if k.events == nil {
		k.events = make(chan Event, 16)
	}
	k.clock = clock.Or(k.clock)
	k.logger = loggingutil.Subsystem(k.logger, "estop.keepalive").With("endpoint", endpoint.Name())
	k.metrics = sharedCheckInMetrics(k.logger)
	k.ctx, k.cancel = context.WithCancel(context.Background())
	go k.run()
	return k
}

// Endpoint returns the endpoint being kept alive.
func (k *KeepAlive) Endpoint() *Endpoint { return k.endpoint }

// Interval returns the check-in cadence.
func (k *KeepAlive) Interval() time.Duration { return k.interval }

// RPCTimeout returns the per check-in timeout.
func (k *KeepAlive) RPCTimeout() time.Duration { return k.rpcTimeout }

// Latest returns the most recent health report.
func (k *KeepAlive) Latest() (Health, string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.health, k.message
}

// Events delivers health reports. Reports are dropped when the consumer
// falls behind; Latest always has the current one.
func (k *KeepAlive) Events() <-chan Event { return k.events }

// Level returns the desired stop level.
func (k *KeepAlive) Level() api.EstopStopLevel {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.level
}

// SetStopLevel changes the level of subsequent check-ins and wakes the loop
// so the change is sent promptly.
func (k *KeepAlive) SetStopLevel(level api.EstopStopLevel) {
	k.mu.Lock()
	if k.level == level {
		k.mu.Unlock()
		return
	}
	k.level = level
	k.mu.Unlock()
	k.logger.Info("estop.keepalive.level", "level", levelName(level))
	select {
	case k.levelChanged <- struct{}{}:
	default:
	}
}

// Stop requests the CUT level.
func (k *KeepAlive) Stop() { k.SetStopLevel(api.EstopStopLevelCut) }

// SettleThenCut requests the SETTLE_THEN_CUT level.
func (k *KeepAlive) SettleThenCut() { k.SetStopLevel(api.EstopStopLevelSettleThenCut) }

// Allow requests the NONE level.
func (k *KeepAlive) Allow() { k.SetStopLevel(api.EstopStopLevelNone) }

// Done is closed when the loop has exited.
func (k *KeepAlive) Done() <-chan struct{} { return k.done }

// Shutdown ends the loop and waits for it. The robot will time the endpoint
// out unless another keepalive takes over. Shutdown is idempotent.
func (k *KeepAlive) Shutdown() {
	k.shutdownOnce.Do(func() {
		k.cancel()
		<-k.done
	})
}

func (k *KeepAlive) run() {
	defer close(k.done)
	k.logger.Debug("estop.keepalive.start", "interval", k.interval, "rpc_timeout", k.rpcTimeout)
	for {
		start := k.clock.Now()
		err := k.endpoint.CheckInAtLevel(k.ctx, k.Level(), client.Params{Timeout: k.rpcTimeout, DisableLogging: true})
		if k.ctx.Err() != nil {
			return
		}
		if k.classify(err) == HealthDisabled {
			k.logger.Warn("estop.keepalive.disabled")
			return
		}
		select {
		case <-k.ctx.Done():
			return
		case <-k.levelChanged:
		case <-k.clock.After(clock.Remaining(k.clock, start, k.interval)):
		}
	}
}

func (k *KeepAlive) classify(err error) Health {
	if err == nil {
		k.report(HealthOK, "")
		return HealthOK
	}
	st := status.FromError(err)
	switch {
	case st.Code() == status.EstopCheckInCategory.Code(int32(api.EstopCheckInStatusEndpointUnknown)):
		k.report(HealthDisabled, st.Message())
		return HealthDisabled
	case st.Code() == status.TimedOut:
		k.report(HealthError, fmt.Sprintf("RPC took longer than %d ms", k.rpcTimeout.Milliseconds()))
	default:
		msg := st.Message()
		if msg == "" {
			msg = st.String()
		}
		k.report(HealthError, msg)
	}
	return HealthError
}

func (k *KeepAlive) report(h Health, message string) {
	k.mu.Lock()
	if k.health == HealthDisabled {
		k.mu.Unlock()
		return
	}
	changed := k.health != h || k.message != message
	k.health, k.message = h, message
	k.mu.Unlock()

	k.metrics.record(k.ctx, h)
	if !changed {
		return
	}
	if h == HealthOK {
		k.logger.Debug("estop.keepalive.ok")
	} else {
		k.logger.Warn("estop.keepalive.error", "health", h.String(), "message", message)
	}
	select {
	case k.events <- Event{Health: h, Message: message, At: k.clock.Now()}:
	default:
	}
}

func levelName(level api.EstopStopLevel) string {
	switch level {
	case api.EstopStopLevelCut:
		return "CUT"
	case api.EstopStopLevelSettleThenCut:
		return "SETTLE_THEN_CUT"
	case api.EstopStopLevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}
