package robocore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/auth"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/command"
	"pkt.systems/robocore/directory"
	"pkt.systems/robocore/estop"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/internal/version"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
	"pkt.systems/robocore/timesync"
	"pkt.systems/robocore/tlsutil"
)

const (
	// EnvUsername and EnvPassword are read by AuthenticateFromEnv.
	EnvUsername = "BOSDYN_CLIENT_USERNAME"
	EnvPassword = "BOSDYN_CLIENT_PASSWORD"
)

var (
	errRobotClosed        = errors.New("robot: closed")
	errTimeSyncNotStarted = status.New(status.TimeSyncNotEstablished, "time sync not started")
)

// Robot coordinates everything the SDK keeps per robot: connections, the
// bearer token, the service-client cache, the lease wallet and the time-sync
// keeper. A Robot must not be copied.
type Robot struct {
	sdk        *SDK
	address    string
	clientName string
	clock      clock.Clock
	logger     pslog.Logger
	wallet     *lease.Wallet
	chain      *processor.Chain
	group      singleflight.Group

	mu      sync.Mutex
	token   string
	conns   map[string]*grpc.ClientConn
	clients map[string]any
	keeper  *timesync.Keeper
	closed  bool
}

func newRobot(s *SDK, address string) *Robot {
	logger := s.logger.With("robot", address)
	r := &Robot{
		sdk:        s,
		address:    address,
		clientName: s.cfg.ClientName,
		clock:      s.clock,
		logger:     logger,
		conns:      make(map[string]*grpc.ClientConn),
		clients:    make(map[string]any),
	}
	r.wallet = lease.NewWallet(lease.WithClientName(r.clientName), lease.WithWalletLogger(logger))
	r.chain = processor.Default(r.clientName, r.clock)
	// Clients that consume lease use results add the response side themselves.
	r.chain.AppendRequest(lease.NewRequestProcessor(r.wallet, lease.DefaultResource))
	return r
}

// Address returns host:port of the robot.
func (r *Robot) Address() string { return r.address }

// Wallet returns the lease wallet shared by all service clients.
func (r *Robot) Wallet() *lease.Wallet { return r.wallet }

// Chain returns the processor chain shared by all service clients. It must
// not be changed after the first client is created.
func (r *Robot) Chain() *processor.Chain { return r.chain }

// Logger returns the robot logger.
func (r *Robot) Logger() pslog.Logger { return r.logger }

// Params returns the configured per-call parameters.
func (r *Robot) Params() client.Params { return r.sdk.cfg.Params() }

// Token returns the current bearer token, "" before authentication.
func (r *Robot) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// UpdateToken replaces the bearer token used by every connection.
func (r *Robot) UpdateToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

// Authenticate exchanges user credentials for a token and installs it.
func (r *Robot) Authenticate(ctx context.Context, username, password string) error {
	ac, err := r.AuthClient(ctx)
	if err != nil {
		return err
	}
	tok, err := ac.Token(ctx, username, password, r.Params())
	if err != nil {
		r.logger.Warn("robot.authenticate.failed", "user", username, "error", err)
		return err
	}
	r.UpdateToken(tok)
	r.logger.Info("robot.authenticate.success", "user", username)
	return nil
}

// AuthenticateFromEnv authenticates with the credentials in EnvUsername and
// EnvPassword.
func (r *Robot) AuthenticateFromEnv(ctx context.Context) error {
	user := strings.TrimSpace(os.Getenv(EnvUsername))
	pass := os.Getenv(EnvPassword)
	if user == "" || pass == "" {
		return status.Newf(status.Unauthenticated, "%s and %s must be set", EnvUsername, EnvPassword)
	}
	return r.Authenticate(ctx, user, pass)
}

// EnsureServiceClient returns the cached client for name, creating it on
// first use. Concurrent callers for the same name share one construction.
func EnsureServiceClient[T any](ctx context.Context, r *Robot, name string) (T, error) {
	var zero T
	v, err := r.serviceClient(ctx, name)
	if err != nil {
		return zero, err
	}
	c, ok := v.(T)
	if !ok {
		return zero, status.Newf(status.IncorrectServiceType, "service %q is served by %T, not %T", name, v, zero)
	}
	return c, nil
}

func (r *Robot) serviceClient(ctx context.Context, name string) (any, error) {
	if c, ok, err := r.cached(name); ok || err != nil {
		return c, err
	}
	v, err, _ := r.group.Do(name, func() (any, error) {
		if c, ok, err := r.cached(name); ok || err != nil {
			return c, err
		}
		f, ok := r.sdk.factories[name]
		if !ok || f.New == nil {
			return nil, status.Newf(status.UnregisteredService, "no client registered for service %q", name)
		}
		authority := f.Authority
		if authority == "" {
			entry, err := r.resolve(ctx, name)
			if err != nil {
				return nil, err
			}
			if f.Type != "" && entry.Type != f.Type {
				return nil, status.Newf(status.IncorrectServiceType, "service %q has type %s, expected %s", name, entry.Type, f.Type)
			}
			authority = entry.Authority
		}
		conn, err := r.conn(authority)
		if err != nil {
			return nil, err
		}
		c := f.New(r, conn, r.clientOptions(name)...)
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			return nil, errRobotClosed
		}
		r.clients[name] = c
		r.logger.Debug("robot.client.created", "service", name, "authority", authority)
		return c, nil
	})
	return v, err
}

func (r *Robot) cached(name string) (any, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, false, errRobotClosed
	}
	c, ok := r.clients[name]
	return c, ok, nil
}

func (r *Robot) resolve(ctx context.Context, name string) (*api.ServiceEntry, error) {
	dc, err := r.DirectoryClient(ctx)
	if err != nil {
		return nil, err
	}
	return dc.GetServiceEntry(ctx, name, r.Params())
}

func (r *Robot) clientOptions(name string) []client.Option {
	return []client.Option{
		client.WithChain(r.chain),
		client.WithClock(r.clock),
		client.WithLogger(r.logger.With("client", name)),
	}
}

// conn returns the connection for authority, dialing it lazily.
func (r *Robot) conn(authority string) (*grpc.ClientConn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errRobotClosed
	}
	if cc, ok := r.conns[authority]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient("passthrough:///"+r.address, r.dialOptions(authority)...)
	if err != nil {
		return nil, status.Newf(status.UnableToConnectToRobot, "dial %s: %v", r.address, err)
	}
	r.conns[authority] = cc
	return cc, nil
}

func (r *Robot) dialOptions(authority string) []grpc.DialOption {
	cfg := r.sdk.cfg
	opts := []grpc.DialOption{
		grpc.WithAuthority(authority),
		grpc.WithUserAgent(version.UserAgent()),
		grpc.WithPerRPCCredentials(client.BearerCredentials(r.Token, !cfg.Insecure)),
	}
	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsutil.ClientConfig(r.sdk.roots, authority))))
	}
	if d := r.sdk.dialer; d != nil {
		opts = append(opts, grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			return d(ctx, addr)
		}))
	}
	return append(opts, r.sdk.dialOpts...)
}

// AuthClient returns the auth service client.
func (r *Robot) AuthClient(ctx context.Context) (*auth.Client, error) {
	return EnsureServiceClient[*auth.Client](ctx, r, auth.ServiceName)
}

// DirectoryClient returns the directory service client.
func (r *Robot) DirectoryClient(ctx context.Context) (*directory.Client, error) {
	return EnsureServiceClient[*directory.Client](ctx, r, directory.ServiceName)
}

// LeaseClient returns the lease service client.
func (r *Robot) LeaseClient(ctx context.Context) (*lease.Client, error) {
	return EnsureServiceClient[*lease.Client](ctx, r, lease.ServiceName)
}

// TimeSyncClient returns the time-sync service client.
func (r *Robot) TimeSyncClient(ctx context.Context) (*timesync.Client, error) {
	return EnsureServiceClient[*timesync.Client](ctx, r, timesync.ServiceName)
}

// EstopClient returns the E-Stop service client.
func (r *Robot) EstopClient(ctx context.Context) (*estop.Client, error) {
	return EnsureServiceClient[*estop.Client](ctx, r, estop.ServiceName)
}

// RobotCommandClient returns the robot command client. Its commands are
// stamped with the robot's wallet and time-sync estimate.
func (r *Robot) RobotCommandClient(ctx context.Context) (*command.Client, error) {
	return EnsureServiceClient[*command.Client](ctx, r, command.ServiceName)
}

// NewEstopEndpoint returns an E-Stop endpoint using the configured timeout.
func (r *Robot) NewEstopEndpoint(ctx context.Context, name string, opts ...estop.EndpointOption) (*estop.Endpoint, error) {
	ec, err := r.EstopClient(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]estop.EndpointOption{estop.WithEndpointLogger(r.logger)}, opts...)
	return estop.NewEndpoint(ec, name, r.sdk.cfg.EstopTimeout, opts...), nil
}

// StartTimeSync starts the time-sync keeper, or resumes it after Stop. The
// keeper is created on first call.
func (r *Robot) StartTimeSync(ctx context.Context) (*timesync.Keeper, error) {
	r.mu.Lock()
	closed, k := r.closed, r.keeper
	r.mu.Unlock()
	if closed {
		return nil, errRobotClosed
	}
	if k == nil {
		tc, err := r.TimeSyncClient(ctx)
		if err != nil {
			return nil, err
		}
		endpoint := timesync.NewEndpoint(tc, timesync.WithEndpointClock(r.clock))
		k = timesync.NewKeeper(endpoint,
			timesync.WithSyncInterval(r.sdk.cfg.TimeSyncInterval),
			timesync.WithKeeperParams(r.Params()),
			timesync.WithKeeperClock(r.clock),
			timesync.WithKeeperLogger(r.logger),
		)
	}
	// Start under mu so Close cannot slip in between the check and the start.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errRobotClosed
	}
	if r.keeper == nil {
		r.keeper = k
	}
	r.keeper.Start()
	return r.keeper, nil
}

// TimeSync returns the keeper started by StartTimeSync, nil before.
func (r *Robot) TimeSync() *timesync.Keeper {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keeper
}

// Close stops the time-sync keeper and closes every connection. Service
// clients obtained earlier fail afterwards.
func (r *Robot) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	keeper := r.keeper
	conns := r.conns
	r.conns = nil
	r.clients = nil
	r.mu.Unlock()

	if keeper != nil {
		keeper.Stop()
	}
	var g errgroup.Group
	for authority, cc := range conns {
		g.Go(func() error {
			if err := cc.Close(); err != nil {
				return fmt.Errorf("close %s: %w", authority, err)
			}
			return nil
		})
	}
	err := g.Wait()
	r.logger.Debug("robot.closed", "connections", len(conns))
	return err
}
