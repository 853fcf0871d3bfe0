package robocore_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore"
	"pkt.systems/robocore/api"
	"pkt.systems/robocore/auth"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/command"
	"pkt.systems/robocore/directory"
	"pkt.systems/robocore/estop"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/status"
	"pkt.systems/robocore/timesync"
	"pkt.systems/robocore/tlsutil"
)

type handlerFunc = func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error)

func handle[Req any](fn func(ctx context.Context, req *Req) (any, error)) handlerFunc {
	return func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return fn(ctx, req)
	}
}

// fakeRobot serves the bootstrap services plus lease and time-sync.
type fakeRobot struct {
	skew time.Duration

	mu          sync.Mutex
	entries     map[string]*api.ServiceEntry
	lookups     map[string]int
	tokens      []string
	clientNames []string
}

func newFakeRobot() *fakeRobot {
	return &fakeRobot{
		skew: time.Hour,
		entries: map[string]*api.ServiceEntry{
			lease.ServiceName:    {Name: lease.ServiceName, Type: lease.ServiceType, Authority: "api.spot.robot"},
			timesync.ServiceName: {Name: timesync.ServiceName, Type: timesync.ServiceType, Authority: "api.spot.robot"},
			estop.ServiceName:    {Name: estop.ServiceName, Type: "robocore.legacy.EstopService", Authority: "estop.spot.robot"},
		},
		lookups: make(map[string]int),
	}
}

func (f *fakeRobot) record(ctx context.Context, header *api.RequestHeader) {
	md, _ := metadata.FromIncomingContext(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := md.Get("authorization"); len(v) == 1 {
		f.tokens = append(f.tokens, v[0])
	} else {
		f.tokens = append(f.tokens, "")
	}
	if header != nil {
		f.clientNames = append(f.clientNames, header.ClientName)
	}
}

func (f *fakeRobot) descs() []*grpc.ServiceDesc {
	return []*grpc.ServiceDesc{
		{
			ServiceName: auth.ServiceType,
			HandlerType: (*any)(nil),
			Methods: []grpc.MethodDesc{{MethodName: "GetAuthToken", Handler: handle(func(ctx context.Context, req *api.GetAuthTokenRequest) (any, error) {
				f.record(ctx, req.Header)
				if req.Username != "user" || req.Password != "secret" {
					return &api.GetAuthTokenResponse{Status: api.GetAuthTokenStatusInvalidLogin}, nil
				}
				return &api.GetAuthTokenResponse{Status: api.GetAuthTokenStatusOK, Token: "tok-1"}, nil
			})}},
		},
		{
			ServiceName: directory.ServiceType,
			HandlerType: (*any)(nil),
			Methods: []grpc.MethodDesc{{MethodName: "GetServiceEntry", Handler: handle(func(ctx context.Context, req *api.GetServiceEntryRequest) (any, error) {
				f.record(ctx, req.Header)
				f.mu.Lock()
				defer f.mu.Unlock()
				f.lookups[req.ServiceName]++
				entry, ok := f.entries[req.ServiceName]
				if !ok {
					return &api.GetServiceEntryResponse{Status: api.GetServiceEntryStatusNonexistent}, nil
				}
				return &api.GetServiceEntryResponse{Status: api.GetServiceEntryStatusOK, ServiceEntry: entry}, nil
			})}},
		},
		{
			ServiceName: lease.ServiceType,
			HandlerType: (*any)(nil),
			Methods: []grpc.MethodDesc{{MethodName: "AcquireLease", Handler: handle(func(ctx context.Context, req *api.AcquireLeaseRequest) (any, error) {
				f.record(ctx, req.Header)
				return &api.AcquireLeaseResponse{
					Status: api.AcquireLeaseStatusOK,
					Lease:  &api.Lease{Resource: req.Resource, Epoch: "ep1", Sequence: []int64{1}},
				}, nil
			})}},
		},
		{
			ServiceName: timesync.ServiceType,
			HandlerType: (*any)(nil),
			Methods: []grpc.MethodDesc{{MethodName: "TimeSyncUpdate", Handler: handle(func(ctx context.Context, req *api.TimeSyncUpdateRequest) (any, error) {
				f.record(ctx, req.Header)
				now := time.Now().Add(f.skew)
				return &api.TimeSyncUpdateResponse{
					ResponseEnvelope: api.ResponseEnvelope{Header: &api.ResponseHeader{
						RequestReceivedTimestamp: timestamppb.New(now),
						ResponseTimestamp:        timestamppb.New(now),
					}},
					ClockIdentifier: "robot-clock",
					State: &api.TimeSyncState{
						Status: api.TimeSyncStatusOK,
						BestEstimate: &api.TimeSyncEstimate{
							ClockSkew:     durationpb.New(f.skew),
							RoundTripTime: durationpb.New(time.Millisecond),
						},
					},
				}, nil
			})}},
		},
	}
}

func (f *fakeRobot) lookupCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[name]
}

func (f *fakeRobot) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return ""
	}
	return f.tokens[len(f.tokens)-1]
}

func startRobot(t *testing.T, f *fakeRobot, opts ...robocore.Option) *robocore.Robot {
	t.Helper()
	return startRobotWith(t, f, nil, func(cfg *robocore.Config) { cfg.Insecure = true }, opts...)
}

func startRobotWith(t *testing.T, f *fakeRobot, serverOpts []grpc.ServerOption, configure func(*robocore.Config), opts ...robocore.Option) *robocore.Robot {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(serverOpts...)
	for _, d := range f.descs() {
		gs.RegisterService(d, f)
	}
	go func() {
		_ = gs.Serve(lis)
	}()

	cfg := robocore.DefaultConfig()
	cfg.ClientName = "robot-test"
	cfg.RPCTimeout = 5 * time.Second
	cfg.TimeSyncInterval = 50 * time.Millisecond
	if configure != nil {
		configure(&cfg)
	}
	opts = append([]robocore.Option{robocore.WithDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})}, opts...)
	sdk, err := robocore.NewSDK(cfg, opts...)
	if err != nil {
		t.Fatalf("sdk: %v", err)
	}
	r, err := sdk.CreateRobot("192.168.80.3")
	if err != nil {
		t.Fatalf("create robot: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		gs.Stop()
	})
	return r
}

func startTLSRobot(t *testing.T, f *fakeRobot, hosts ...string) *robocore.Robot {
	t.Helper()
	ca, err := tlsutil.GenerateCA("", time.Hour)
	if err != nil {
		t.Fatalf("ca: %v", err)
	}
	kp, err := ca.IssueServer(hosts, time.Hour)
	if err != nil {
		t.Fatalf("server cert: %v", err)
	}
	serverTLS, err := tlsutil.ServerConfig(kp)
	if err != nil {
		t.Fatalf("server tls: %v", err)
	}
	roots, err := tlsutil.ParseRoots(ca.CertPEM)
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	return startRobotWith(t, f, []grpc.ServerOption{grpc.Creds(credentials.NewTLS(serverTLS))}, nil, robocore.WithRootCAs(roots))
}

func TestCreateRobotAddsDefaultPort(t *testing.T) {
	sdk, err := robocore.NewSDK(robocore.DefaultConfig())
	if err != nil {
		t.Fatalf("sdk: %v", err)
	}
	r, err := sdk.CreateRobot("spot.local")
	if err != nil {
		t.Fatalf("create robot: %v", err)
	}
	defer r.Close()
	if r.Address() != "spot.local:443" {
		t.Fatalf("address = %q", r.Address())
	}
	if _, err := sdk.CreateRobot("  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestAuthenticateInstallsToken(t *testing.T) {
	f := newFakeRobot()
	r := startRobot(t, f)
	ctx := context.Background()

	if err := r.Authenticate(ctx, "user", "wrong"); err == nil {
		t.Fatal("expected invalid login to fail")
	}
	if r.Token() != "" {
		t.Fatalf("token after failed login = %q", r.Token())
	}
	if err := r.Authenticate(ctx, "user", "secret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if r.Token() != "tok-1" {
		t.Fatalf("token = %q", r.Token())
	}

	lc, err := r.LeaseClient(ctx)
	if err != nil {
		t.Fatalf("lease client: %v", err)
	}
	if _, err := lc.AcquireLease(ctx, "body", r.Params()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if got := f.lastToken(); got != "Bearer tok-1" {
		t.Fatalf("authorization = %q", got)
	}
}

func TestAuthenticateFromEnvRequiresCredentials(t *testing.T) {
	r := startRobot(t, newFakeRobot())
	t.Setenv(robocore.EnvUsername, "")
	t.Setenv(robocore.EnvPassword, "")
	err := r.AuthenticateFromEnv(context.Background())
	if !status.Is(err, status.Unauthenticated) {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	t.Setenv(robocore.EnvUsername, "user")
	t.Setenv(robocore.EnvPassword, "secret")
	if err := r.AuthenticateFromEnv(context.Background()); err != nil {
		t.Fatalf("authenticate from env: %v", err)
	}
	if r.Token() != "tok-1" {
		t.Fatalf("token = %q", r.Token())
	}
}

func TestServiceClientsAreCachedAndShareTheWallet(t *testing.T) {
	f := newFakeRobot()
	r := startRobot(t, f)
	ctx := context.Background()

	first, err := r.LeaseClient(ctx)
	if err != nil {
		t.Fatalf("lease client: %v", err)
	}
	second, err := robocore.EnsureServiceClient[*lease.Client](ctx, r, lease.ServiceName)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached lease client")
	}
	if n := f.lookupCount(lease.ServiceName); n != 1 {
		t.Fatalf("directory lookups = %d, want 1", n)
	}
	if first.Wallet() != r.Wallet() {
		t.Fatal("lease client does not share the robot wallet")
	}

	if _, err := first.AcquireLease(ctx, "body", r.Params()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	got, err := r.Wallet().GetLease("body")
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if got.Epoch != "ep1" {
		t.Fatalf("wallet lease = %v", got)
	}
	f.mu.Lock()
	names := append([]string(nil), f.clientNames...)
	f.mu.Unlock()
	for _, n := range names {
		if n != "robot-test" {
			t.Fatalf("request client name = %q", n)
		}
	}
}

func TestConcurrentEnsureBuildsOneClient(t *testing.T) {
	f := newFakeRobot()
	r := startRobot(t, f)
	ctx := context.Background()

	const workers = 8
	clients := make([]*timesync.Client, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := r.TimeSyncClient(ctx)
			if err != nil {
				t.Errorf("time-sync client: %v", err)
				return
			}
			clients[i] = c
		}()
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if clients[i] != clients[0] {
			t.Fatal("expected one shared client")
		}
	}
	if n := f.lookupCount(timesync.ServiceName); n != 1 {
		t.Fatalf("directory lookups = %d, want 1", n)
	}
}

func TestEnsureServiceClientErrors(t *testing.T) {
	r := startRobot(t, newFakeRobot())
	ctx := context.Background()

	if _, err := robocore.EnsureServiceClient[*lease.Client](ctx, r, "spot-cam"); !status.Is(err, status.UnregisteredService) {
		t.Fatalf("unregistered: %v", err)
	}
	if _, err := r.RobotCommandClient(ctx); !status.Is(err, status.NonExistentServiceName) {
		t.Fatalf("nonexistent: %v", err)
	}
	if _, err := r.EstopClient(ctx); !status.Is(err, status.IncorrectServiceType) {
		t.Fatalf("directory type mismatch: %v", err)
	}
	if _, err := r.LeaseClient(ctx); err != nil {
		t.Fatalf("lease client: %v", err)
	}
	if _, err := robocore.EnsureServiceClient[*timesync.Client](ctx, r, lease.ServiceName); !status.Is(err, status.IncorrectServiceType) {
		t.Fatalf("cached type mismatch: %v", err)
	}
}

func TestServiceFactoryOverride(t *testing.T) {
	f := newFakeRobot()
	f.entries["spot-cam"] = &api.ServiceEntry{Name: "spot-cam", Type: lease.ServiceType, Authority: "api.spot.robot"}
	r := startRobot(t, f, robocore.WithServiceFactory("spot-cam", robocore.ServiceFactory{
		Type: lease.ServiceType,
		New: func(_ *robocore.Robot, conn grpc.ClientConnInterface, _ ...client.Option) any {
			return lease.NewClient(conn, lease.NewWallet())
		},
	}))

	c, err := robocore.EnsureServiceClient[*lease.Client](context.Background(), r, "spot-cam")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if c.Wallet() == r.Wallet() {
		t.Fatal("factory wallet was replaced by the robot wallet")
	}
}

func TestStartTimeSyncFeedsCommandStamping(t *testing.T) {
	f := newFakeRobot()
	f.entries[command.ServiceName] = &api.ServiceEntry{Name: command.ServiceName, Type: command.ServiceType, Authority: "api.spot.robot"}
	r := startRobot(t, f)

	if r.TimeSync() != nil {
		t.Fatal("time sync before start")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k, err := r.StartTimeSync(ctx)
	if err != nil {
		t.Fatalf("start time sync: %v", err)
	}
	again, err := r.StartTimeSync(ctx)
	if err != nil || again != k {
		t.Fatalf("second start: %v", err)
	}
	if err := k.WaitForSync(ctx); err != nil {
		t.Fatalf("wait for sync: %v", err)
	}
	if k.ClockIdentifier() != "robot-clock" {
		t.Fatalf("clock id = %q", k.ClockIdentifier())
	}
	conv, err := k.Converter()
	if err != nil {
		t.Fatalf("converter: %v", err)
	}
	if conv.Skew != time.Hour {
		t.Fatalf("skew = %v", conv.Skew)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	r := startRobot(t, newFakeRobot())
	ctx := context.Background()

	k, err := r.StartTimeSync(ctx)
	if err != nil {
		t.Fatalf("start time sync: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if k.Running() {
		t.Fatal("keeper still running after close")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := r.LeaseClient(ctx); err == nil {
		t.Fatal("expected error after close")
	}
	if again, err := r.StartTimeSync(ctx); err == nil || again != nil {
		t.Fatalf("start time sync after close = %v, %v", again, err)
	}
	if k.Running() {
		t.Fatal("keeper restarted after close")
	}
}

func TestTLSVerifiesEachAuthority(t *testing.T) {
	f := newFakeRobot()
	r := startTLSRobot(t, f, auth.Authority, directory.Authority)
	ctx := context.Background()

	if err := r.Authenticate(ctx, "user", "secret"); err != nil {
		t.Fatalf("authenticate over tls: %v", err)
	}
	lc, err := r.LeaseClient(ctx)
	if err != nil {
		t.Fatalf("lease client over tls: %v", err)
	}
	if _, err := lc.AcquireLease(ctx, "body", r.Params()); err != nil {
		t.Fatalf("acquire over tls: %v", err)
	}
	if got := f.lastToken(); got != "Bearer tok-1" {
		t.Fatalf("authorization = %q", got)
	}
}

func TestTLSRejectsUncoveredAuthority(t *testing.T) {
	r := startTLSRobot(t, newFakeRobot(), auth.Authority)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Authenticate(ctx, "user", "secret"); err != nil {
		t.Fatalf("authenticate over tls: %v", err)
	}
	if _, err := r.LeaseClient(ctx); err == nil {
		t.Fatal("expected the directory authority to fail verification")
	}
}
