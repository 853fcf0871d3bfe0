package robocore

import (
	"context"
	"crypto/x509"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"

	"pkt.systems/pslog"

	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/tlsutil"
)

// Dialer opens the raw connection to a robot address.
type Dialer func(ctx context.Context, addr string) (net.Conn, error)

// SDK creates Robots that share a configuration, trust roots and service
// factories.
type SDK struct {
	cfg       Config
	roots     *x509.CertPool
	logger    pslog.Logger
	clock     clock.Clock
	dialer    Dialer
	dialOpts  []grpc.DialOption
	factories map[string]ServiceFactory
}

// Option customises an SDK.
type Option func(*SDK)

// WithLogger supplies the logger robots derive theirs from.
func WithLogger(logger pslog.Logger) Option {
	return func(s *SDK) {
		s.logger = logger
	}
}

// WithRootCAs sets the CAs robots are verified against. It takes precedence
// over Config.RootCAFile.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(s *SDK) {
		s.roots = pool
	}
}

// WithDialer replaces the network dialer, for instance with an in-memory
// listener.
func WithDialer(d Dialer) Option {
	return func(s *SDK) {
		s.dialer = d
	}
}

// WithDialOptions appends gRPC dial options to every robot connection.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(s *SDK) {
		s.dialOpts = append(s.dialOpts, opts...)
	}
}

// WithClock overrides the local clock shared by robots.
func WithClock(c clock.Clock) Option {
	return func(s *SDK) {
		s.clock = c
	}
}

// WithServiceFactory registers (or replaces) the factory for a service name.
func WithServiceFactory(name string, f ServiceFactory) Option {
	return func(s *SDK) {
		s.factories[name] = f
	}
}

// NewSDK validates cfg and returns an SDK.
func NewSDK(cfg Config, opts ...Option) (*SDK, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &SDK{
		cfg:       cfg,
		factories: defaultFactories(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.roots == nil && !cfg.Insecure && strings.TrimSpace(cfg.RootCAFile) != "" {
		pool, err := tlsutil.LoadRoots(cfg.RootCAFile)
		if err != nil {
			return nil, fmt.Errorf("sdk: %w", err)
		}
		s.roots = pool
	}
	s.clock = clock.Or(s.clock)
	s.logger = loggingutil.Subsystem(s.logger, "sdk")
	return s, nil
}

// Config returns the validated configuration.
func (s *SDK) Config() Config { return s.cfg }

// Logger returns the SDK logger.
func (s *SDK) Logger() pslog.Logger { return s.logger }

// CreateRobot returns a Robot for address, a host name or IP optionally
// followed by a port. No connection is made until the first call.
func (s *SDK) CreateRobot(address string) (*Robot, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("sdk: robot address is required")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, fmt.Sprint(s.cfg.Port))
	}
	r := newRobot(s, address)
	s.logger.Debug("sdk.robot.created", "address", address)
	return r, nil
}
