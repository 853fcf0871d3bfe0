package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/grpc"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/auth"
	"pkt.systems/robocore/directory"
	"pkt.systems/robocore/internal/version"
	"pkt.systems/robocore/lease"
)

func executeRootCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ROBOCORE_CONFIG_DIR", t.TempDir())
	cmd := newRootCommand(pslog.NewStructured(io.Discard))
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommandPrintsCurrentVersion(t *testing.T) {
	stdout, _, err := executeRootCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	info := version.Read()
	if want := info.Module + " " + info.Version + " (" + info.GoVersion + ")\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestConfigGenStdout(t *testing.T) {
	stdout, _, err := executeRootCommand(t, "config", "gen", "--stdout")
	if err != nil {
		t.Fatalf("config gen: %v", err)
	}
	for _, want := range []string{"client_name: robocore", "port: 443", "rpc_timeout: 30s"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("generated config missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfigGenRefusesOverwrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "robotctl.yaml")
	if _, _, err := executeRootCommand(t, "config", "gen", "--out", out); err != nil {
		t.Fatalf("first gen: %v", err)
	}
	if _, _, err := executeRootCommand(t, "config", "gen", "--out", out); err == nil {
		t.Fatal("expected second gen to refuse overwrite")
	}
	if _, _, err := executeRootCommand(t, "config", "gen", "--out", out, "--force"); err != nil {
		t.Fatalf("forced gen: %v", err)
	}
}

func TestConfigShowMergesFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robotctl.yaml")
	data := "client_name: from-file\nrpc_timeout: 5s\nestop_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	stdout, _, err := executeRootCommand(t, "config", "show", "-c", path, "--port", "8443")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"client_name: from-file", "port: 8443", "rpc_timeout: 5s", "estop_timeout: 3s"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("config missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = executeRootCommand(t, "config", "show", "-c", path, "--client-name", "from-flag")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "client_name: from-flag") {
		t.Fatalf("flag did not override file:\n%s", stdout)
	}
}

func TestConfigShowGeneratesClientName(t *testing.T) {
	stdout, _, err := executeRootCommand(t, "config", "show", "--client-name", "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "client_name: robotctl-") {
		t.Fatalf("expected generated client name:\n%s", stdout)
	}
}

func TestMissingExplicitConfigFails(t *testing.T) {
	if _, _, err := executeRootCommand(t, "config", "show", "-c", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing explicit config to fail")
	}
}

func TestParseStopLevel(t *testing.T) {
	cases := map[string]api.EstopStopLevel{
		"none":   api.EstopStopLevelNone,
		"CUT":    api.EstopStopLevelCut,
		"settle": api.EstopStopLevelSettleThenCut,
	}
	for in, want := range cases {
		got, err := parseStopLevel(in)
		if err != nil || got != want {
			t.Fatalf("%s: got %v %v", in, got, err)
		}
	}
	if _, err := parseStopLevel("maybe"); err == nil {
		t.Fatal("expected unknown level to fail")
	}
	if _, _, err := executeRootCommand(t, "estop", "--level", "maybe", "-H", "robot"); err == nil || !strings.Contains(err.Error(), "unknown stop level") {
		t.Fatalf("estop with bad level: %v", err)
	}
}

func TestRobotCommandsRequireHostname(t *testing.T) {
	_, _, err := executeRootCommand(t, "timesync")
	if err == nil || !strings.Contains(err.Error(), "--hostname") {
		t.Fatalf("expected hostname error, got %v", err)
	}
}

type handlerFunc = func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error)

func handle[Req any](fn func(req *Req) any) handlerFunc {
	return func(_ any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return fn(req), nil
	}
}

func startLeaseRobot(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpc.NewServer()
	gs.RegisterService(&grpc.ServiceDesc{
		ServiceName: auth.ServiceType,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{MethodName: "GetAuthToken", Handler: handle(func(*api.GetAuthTokenRequest) any {
			return &api.GetAuthTokenResponse{Status: api.GetAuthTokenStatusOK, Token: "tok"}
		})}},
	}, struct{}{})
	gs.RegisterService(&grpc.ServiceDesc{
		ServiceName: directory.ServiceType,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{MethodName: "GetServiceEntry", Handler: handle(func(req *api.GetServiceEntryRequest) any {
			if req.ServiceName != lease.ServiceName {
				return &api.GetServiceEntryResponse{Status: api.GetServiceEntryStatusNonexistent}
			}
			return &api.GetServiceEntryResponse{
				Status:       api.GetServiceEntryStatusOK,
				ServiceEntry: &api.ServiceEntry{Name: lease.ServiceName, Type: lease.ServiceType, Authority: "api.spot.robot"},
			}
		})}},
	}, struct{}{})
	gs.RegisterService(&grpc.ServiceDesc{
		ServiceName: lease.ServiceType,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "AcquireLease", Handler: handle(func(req *api.AcquireLeaseRequest) any {
				return &api.AcquireLeaseResponse{
					Status: api.AcquireLeaseStatusOK,
					Lease:  &api.Lease{Resource: req.Resource, Epoch: "ep", Sequence: []int64{7}},
				}
			})},
			{MethodName: "ListLeases", Handler: handle(func(*api.ListLeasesRequest) any {
				return &api.ListLeasesResponse{Resources: []*api.LeaseResource{
					{Resource: "body", Lease: &api.Lease{Resource: "body", Epoch: "ep", Sequence: []int64{7}}, LeaseOwner: &api.LeaseOwner{ClientName: "tablet"}},
					{Resource: "arm"},
				}}
			})},
		},
	}, struct{}{})
	go func() {
		_ = gs.Serve(ln)
	}()
	t.Cleanup(gs.Stop)
	return ln.Addr().String()
}

func TestLeaseCommandsAgainstRobot(t *testing.T) {
	addr := startLeaseRobot(t)
	t.Setenv("BOSDYN_CLIENT_USERNAME", "user")
	t.Setenv("BOSDYN_CLIENT_PASSWORD", "secret")

	stdout, _, err := executeRootCommand(t, "-H", addr, "--insecure", "lease", "list")
	if err != nil {
		t.Fatalf("lease list: %v", err)
	}
	if !strings.Contains(stdout, "body@ep[7]") || !strings.Contains(stdout, "tablet") || !strings.Contains(stdout, "arm") {
		t.Fatalf("unexpected lease table:\n%s", stdout)
	}

	stdout, _, err = executeRootCommand(t, "-H", addr, "--insecure", "lease", "acquire")
	if err != nil {
		t.Fatalf("lease acquire: %v", err)
	}
	if strings.TrimSpace(stdout) != "acquire body@ep[7]" {
		t.Fatalf("acquire output = %q", stdout)
	}
}
