package timesync

import (
	"context"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/status"
)

// DefaultMaxSamples bounds EstablishTimeSync when no limit is given.
const DefaultMaxSamples = 25

// Endpoint is the client side of the time-sync exchange. Every exchange
// reports the previous round trip to the robot and receives the robot's
// cumulative estimate.
type Endpoint struct {
	updater Updater
	clock   clock.Clock

	mu                sync.Mutex
	previousRoundTrip *api.TimeSyncRoundTrip
	clockIdentifier   string
	response          *api.TimeSyncUpdateResponse
}

// EndpointOption customises an Endpoint.
type EndpointOption func(*Endpoint)

// WithEndpointClock overrides the local clock used to time exchanges.
func WithEndpointClock(c clock.Clock) EndpointOption {
	return func(e *Endpoint) {
		e.clock = c
	}
}

// NewEndpoint returns an endpoint that exchanges through u.
func NewEndpoint(u Updater, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{updater: u}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.clock = clock.Or(e.clock)
	return e
}

// Update performs one exchange. A changed clock identifier discards every
// earlier sample and returns TimeSyncClockChanged; sync must then be
// established again under the new identifier. Under an unchanged identifier
// a failed sample is reported but never replaces an established estimate.
func (e *Endpoint) Update(ctx context.Context, params client.Params) error {
	e.mu.Lock()
	req := &api.TimeSyncUpdateRequest{
		PreviousRoundTrip: e.previousRoundTrip,
		ClockIdentifier:   e.clockIdentifier,
	}
	e.mu.Unlock()

	tx := e.clock.Now()
	resp, err := e.updater.TimeSyncUpdate(ctx, req, params)
	rx := e.clock.Now()
	if err != nil {
		return err
	}

	roundTrip := &api.TimeSyncRoundTrip{
		ClientTx: timestamppb.New(tx),
		ClientRx: timestamppb.New(rx),
	}
	if h := req.GetHeader(); h != nil && h.RequestTimestamp != nil {
		roundTrip.ClientTx = h.RequestTimestamp
	}
	if h := resp.GetHeader(); h != nil {
		roundTrip.ServerRx = h.RequestReceivedTimestamp
		roundTrip.ServerTx = h.ResponseTimestamp
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clockIdentifier != "" && resp.ClockIdentifier != e.clockIdentifier {
		previous := e.clockIdentifier
		e.clockIdentifier = resp.ClockIdentifier
		e.response = nil
		e.previousRoundTrip = roundTrip
		return status.Newf(status.TimeSyncClockChanged, "robot clock identifier changed from %q to %q", previous, resp.ClockIdentifier)
	}
	e.clockIdentifier = resp.ClockIdentifier
	e.previousRoundTrip = roundTrip
	if e.establishedLocked() && !stateEstablished(resp.State) {
		// Same clock: the established estimate stays until a better one arrives.
		return stateStatus(resp.State).Err()
	}
	e.response = resp
	return stateStatus(resp.State).Err()
}

func stateStatus(state *api.TimeSyncState) status.Status {
	if state == nil {
		return status.FromResponse(status.TimeSyncCategory, int32(api.TimeSyncStatusUnknown), "response carries no time-sync state")
	}
	if state.Status == api.TimeSyncStatusMoreSamplesNeeded {
		return status.OK
	}
	return status.FromResponse(status.TimeSyncCategory, int32(state.Status), "")
}

// EstablishTimeSync calls Update until sync is established (when
// breakOnSuccess is set) or maxSamples exchanges have been made. A changed
// clock identifier does not end the loop; any other failure does.
func (e *Endpoint) EstablishTimeSync(ctx context.Context, maxSamples int, breakOnSuccess bool, params client.Params) (bool, error) {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	for i := 0; i < maxSamples; i++ {
		if breakOnSuccess && e.HasEstablishedTimeSync() {
			return true, nil
		}
		if err := e.Update(ctx, params); err != nil && !status.Is(err, status.TimeSyncClockChanged) {
			return e.HasEstablishedTimeSync(), err
		}
	}
	return e.HasEstablishedTimeSync(), nil
}

// HasEstablishedTimeSync reports whether the latest state is OK and carries
// an estimate.
func (e *Endpoint) HasEstablishedTimeSync() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.establishedLocked()
}

func (e *Endpoint) establishedLocked() bool {
	if e.response == nil || e.clockIdentifier == "" {
		return false
	}
	return stateEstablished(e.response.State)
}

func stateEstablished(state *api.TimeSyncState) bool {
	return state != nil && state.Status == api.TimeSyncStatusOK && state.BestEstimate != nil && state.BestEstimate.ClockSkew != nil
}

// ClockIdentifier returns the identifier of the robot clock, "" before the
// first exchange.
func (e *Endpoint) ClockIdentifier() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clockIdentifier
}

// ClockSkew returns the latest skew estimate.
func (e *Endpoint) ClockSkew() (time.Duration, error) {
	est, err := e.estimate()
	if err != nil {
		return 0, err
	}
	return est.ClockSkew.AsDuration(), nil
}

// RoundTripTime returns the round trip time of the best sample.
func (e *Endpoint) RoundTripTime() (time.Duration, error) {
	est, err := e.estimate()
	if err != nil {
		return 0, err
	}
	return est.RoundTripTime.AsDuration(), nil
}

func (e *Endpoint) estimate() (*api.TimeSyncEstimate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.establishedLocked() {
		return nil, status.New(status.TimeSyncNotEstablished, "time sync has not been established")
	}
	return e.response.State.BestEstimate, nil
}

// Response returns the latest accepted response, nil when none is held. The
// response must not be modified.
func (e *Endpoint) Response() *api.TimeSyncUpdateResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.response
}

// Converter returns a converter for the latest skew.
func (e *Endpoint) Converter() (Converter, error) {
	skew, err := e.ClockSkew()
	if err != nil {
		return Converter{}, err
	}
	return Converter{Skew: skew}, nil
}

// RobotTimestampFromLocal converts a local instant into robot time.
func (e *Endpoint) RobotTimestampFromLocal(local time.Time) (*timestamppb.Timestamp, error) {
	c, err := e.Converter()
	if err != nil {
		return nil, err
	}
	return c.RobotTimestamp(local), nil
}
