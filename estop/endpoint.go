package estop

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/durationpb"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/status"
)

// DefaultRole is the role of endpoints that do not set one.
const DefaultRole = "PDB_rooted"

// Response returns the answer to challenge: its bitwise complement, or 0 for
// the zero challenge.
func Response(challenge uint64) uint64 {
	if challenge == 0 {
		return 0
	}
	return ^challenge
}

// Endpoint is one software E-Stop endpoint. It must not be copied.
type Endpoint struct {
	service         Service
	name            string
	role            string
	timeout         time.Duration
	cutPowerTimeout time.Duration
	logger          pslog.Logger

	// checkIn serialises exchanges so each answers the latest challenge.
	checkIn sync.Mutex

	mu           sync.Mutex
	uniqueID     string
	configID     string
	challenge    uint64
	firstCheckIn bool
}

// EndpointOption customises an Endpoint.
type EndpointOption func(*Endpoint)

// WithRole sets the endpoint role.
func WithRole(role string) EndpointOption {
	return func(e *Endpoint) {
		e.role = role
	}
}

// WithCutPowerTimeout sets how long the robot waits after a settle before it
// cuts power. Zero leaves the robot default.
func WithCutPowerTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		e.cutPowerTimeout = d
	}
}

// WithUniqueID presets the robot-assigned identifier.
func WithUniqueID(id string) EndpointOption {
	return func(e *Endpoint) {
		e.uniqueID = id
	}
}

// WithConfigID presets the configuration the endpoint belongs to.
func WithConfigID(id string) EndpointOption {
	return func(e *Endpoint) {
		e.configID = id
	}
}

// WithEndpointLogger supplies a logger.
func WithEndpointLogger(logger pslog.Logger) EndpointOption {
	return func(e *Endpoint) {
		e.logger = logger
	}
}

// NewEndpoint returns an unregistered endpoint. An empty name is replaced by
// a generated one. timeout is how long the robot tolerates missing
// check-ins before it cuts power.
func NewEndpoint(svc Service, name string, timeout time.Duration, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{
		service:      svc,
		name:         name,
		role:         DefaultRole,
		timeout:      timeout,
		firstCheckIn: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.name == "" {
		e.name = "robocore-" + uuid.NewString()[:8]
	}
	e.logger = loggingutil.Subsystem(e.logger, "estop.endpoint").With("endpoint", e.name)
	return e
}

// FromProto rebuilds an endpoint from its wire form.
func FromProto(svc Service, p *api.EstopEndpoint, opts ...EndpointOption) *Endpoint {
	if p == nil {
		p = &api.EstopEndpoint{}
	}
	all := []EndpointOption{WithRole(p.Role), WithUniqueID(p.UniqueID)}
	if p.CutPowerTimeout != nil {
		all = append(all, WithCutPowerTimeout(p.CutPowerTimeout.AsDuration()))
	}
	return NewEndpoint(svc, p.Name, p.Timeout.AsDuration(), append(all, opts...)...)
}

// ToProto returns the wire form of e.
func (e *Endpoint) ToProto() *api.EstopEndpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.protoLocked()
}

func (e *Endpoint) protoLocked() *api.EstopEndpoint {
	p := &api.EstopEndpoint{
		Role:     e.role,
		Name:     e.name,
		UniqueID: e.uniqueID,
		Timeout:  durationpb.New(e.timeout),
	}
	if e.cutPowerTimeout > 0 {
		p.CutPowerTimeout = durationpb.New(e.cutPowerTimeout)
	}
	return p
}

// Name returns the endpoint name.
func (e *Endpoint) Name() string { return e.name }

// Role returns the endpoint role.
func (e *Endpoint) Role() string { return e.role }

// Timeout returns the check-in timeout the robot enforces.
func (e *Endpoint) Timeout() time.Duration { return e.timeout }

// CutPowerTimeout returns the settle-then-cut timeout, zero when unset.
func (e *Endpoint) CutPowerTimeout() time.Duration { return e.cutPowerTimeout }

// UniqueID returns the identifier the robot assigned at registration.
func (e *Endpoint) UniqueID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uniqueID
}

// ConfigID returns the configuration the endpoint is registered in.
func (e *Endpoint) ConfigID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.configID
}

// Challenge returns the challenge the next check-in answers.
func (e *Endpoint) Challenge() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenge
}

// FirstCheckIn reports whether no check-in has been accepted yet.
func (e *Endpoint) FirstCheckIn() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firstCheckIn
}

// ForceSimpleSetup replaces the robot's active configuration with one that
// contains only e, then registers e in it.
func (e *Endpoint) ForceSimpleSetup(ctx context.Context, params client.Params) error {
	active, err := e.service.GetConfig(ctx, "", params)
	if err != nil {
		return status.FromError(err).Chain("read active estop config")
	}
	cfg := &api.EstopConfig{Endpoints: []*api.EstopEndpoint{e.ToProto()}}
	updated, err := e.service.SetConfig(ctx, cfg, active.GetUniqueID(), params)
	if err != nil {
		return status.FromError(err).Chain("replace estop config")
	}
	if updated == nil || len(updated.Endpoints) == 0 {
		return status.New(status.GenericSDKError, "robot returned an empty estop config")
	}
	e.mu.Lock()
	e.uniqueID = updated.Endpoints[0].UniqueID
	e.mu.Unlock()
	return e.Register(ctx, updated.UniqueID, params)
}

// TakeOverSimpleSetup adopts the identity of the single endpoint named name
// in the robot's active configuration. Nothing is registered.
func (e *Endpoint) TakeOverSimpleSetup(ctx context.Context, name string, params client.Params) error {
	active, err := e.service.GetConfig(ctx, "", params)
	if err != nil {
		return status.FromError(err).Chain("read active estop config")
	}
	switch {
	case active == nil || len(active.Endpoints) == 0:
		return status.New(status.GenericSDKError, "active estop config is empty")
	case len(active.Endpoints) != 1:
		return status.Newf(status.GenericSDKError, "active estop config has %d endpoints, want 1", len(active.Endpoints))
	case active.Endpoints[0].Name != name:
		return status.Newf(status.GenericSDKError, "active estop endpoint is %q, not %q", active.Endpoints[0].Name, name)
	}
	e.mu.Lock()
	e.uniqueID = active.Endpoints[0].UniqueID
	e.configID = active.UniqueID
	e.mu.Unlock()
	e.logger.Info("estop.endpoint.taken_over", "unique_id", active.Endpoints[0].UniqueID, "config_id", active.UniqueID)
	return nil
}

// Register places e in configuration targetConfigID, stores the assigned
// identifier and seeds a challenge with a CUT check-in.
func (e *Endpoint) Register(ctx context.Context, targetConfigID string, params client.Params) error {
	self := e.ToProto()
	registered, err := e.service.Register(ctx, targetConfigID, self, self, params)
	if err != nil {
		return status.FromError(err).Chain("register estop endpoint")
	}
	e.mu.Lock()
	if registered != nil {
		e.uniqueID = registered.UniqueID
	}
	e.configID = targetConfigID
	e.firstCheckIn = true
	uniqueID := e.uniqueID
	e.mu.Unlock()
	e.logger.Info("estop.endpoint.registered", "unique_id", uniqueID, "config_id", targetConfigID)
	return e.Stop(ctx, params)
}

// Deregister removes e from its configuration.
func (e *Endpoint) Deregister(ctx context.Context, params client.Params) error {
	e.mu.Lock()
	self, configID := e.protoLocked(), e.configID
	e.mu.Unlock()
	if err := e.service.Deregister(ctx, configID, self, params); err != nil {
		return status.FromError(err).Chain("deregister estop endpoint")
	}
	e.logger.Info("estop.endpoint.deregistered", "config_id", configID)
	return nil
}

// CheckInAtLevel answers the current challenge at level. The first check-in
// accepts whatever challenge the robot returns; later ones store the new
// challenge only when the robot reports success.
func (e *Endpoint) CheckInAtLevel(ctx context.Context, level api.EstopStopLevel, params client.Params) error {
	e.checkIn.Lock()
	defer e.checkIn.Unlock()

	e.mu.Lock()
	first := e.firstCheckIn
	req := &api.EstopCheckInRequest{
		Endpoint:  e.protoLocked(),
		Challenge: e.challenge,
		Response:  Response(e.challenge),
		StopLevel: level,
	}
	e.mu.Unlock()

	resp, err := e.service.CheckIn(ctx, req, first, params)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.challenge = resp.Challenge
	e.firstCheckIn = false
	e.mu.Unlock()
	return nil
}

// Stop checks in at the CUT level.
func (e *Endpoint) Stop(ctx context.Context, params client.Params) error {
	return e.CheckInAtLevel(ctx, api.EstopStopLevelCut, params)
}

// SettleThenCut checks in at the SETTLE_THEN_CUT level.
func (e *Endpoint) SettleThenCut(ctx context.Context, params client.Params) error {
	return e.CheckInAtLevel(ctx, api.EstopStopLevelSettleThenCut, params)
}

// Allow checks in at the NONE level, releasing the stop.
func (e *Endpoint) Allow(ctx context.Context, params client.Params) error {
	return e.CheckInAtLevel(ctx, api.EstopStopLevelNone, params)
}
