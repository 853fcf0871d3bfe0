package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

var getEntry = client.Method[*api.GetServiceEntryRequest, *api.GetServiceEntryResponse]{
	Name: "GetServiceEntry",
	New:  func() *api.GetServiceEntryResponse { return new(api.GetServiceEntryResponse) },
	Check: func(resp *api.GetServiceEntryResponse) status.Status {
		return status.FromResponse(status.DirectoryCategory, int32(resp.Status), "")
	},
}

func okHeader() *api.ResponseHeader {
	return &api.ResponseHeader{Error: &api.CommonError{Code: api.CommonErrorOK}}
}

func TestUnaryStampsHeaderAndReturnsResponse(t *testing.T) {
	t.Parallel()

	var seen *api.GetServiceEntryRequest
	conn := &fakeConn{handler: func(_ context.Context, method string, req any) (any, error) {
		if method != "/robocore.directory.DirectoryService/GetServiceEntry" {
			t.Errorf("unexpected method %q", method)
		}
		seen = req.(*api.GetServiceEntryRequest)
		return &api.GetServiceEntryResponse{
			ResponseEnvelope: api.ResponseEnvelope{Header: okHeader()},
			Status:           api.GetServiceEntryStatusOK,
			ServiceEntry:     &api.ServiceEntry{Name: "lease", Type: "robocore.lease.LeaseService"},
		}, nil
	}}
	base := client.NewBase(conn, "robocore.directory.DirectoryService",
		client.WithChain(processor.Default("tester", nil)))

	resp, err := client.Call(context.Background(), base, getEntry, &api.GetServiceEntryRequest{ServiceName: "lease"}, client.Params{})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if resp.ServiceEntry == nil || resp.ServiceEntry.Name != "lease" {
		t.Fatalf("unexpected entry %+v", resp.ServiceEntry)
	}
	if h := seen.GetHeader(); h == nil || h.ClientName != "tester" {
		t.Fatalf("client name not stamped: %+v", seen.GetHeader())
	}
}

func TestUnaryRequestProcessorFailureSkipsTransport(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{handler: func(context.Context, string, any) (any, error) {
		t.Error("transport must not be called")
		return nil, nil
	}}
	chain := processor.NewChain()
	chain.AppendRequest(processor.RequestFunc(func(context.Context, processor.Call, api.Request) error {
		return status.New(status.ResourceNotInWallet, "body")
	}))
	base := client.NewBase(conn, "svc", client.WithChain(chain))

	f := client.Unary(context.Background(), base, getEntry, &api.GetServiceEntryRequest{}, client.Params{})
	select {
	case <-f.Done():
	default:
		t.Fatal("future should be resolved immediately")
	}
	res := f.Wait(context.Background())
	if res.Status.Code() != status.ResourceNotInWallet {
		t.Fatalf("unexpected status %v", res.Status)
	}
	if res.Response == nil {
		t.Fatal("response should be an empty message, not nil")
	}
	if conn.calls.Load() != 0 {
		t.Fatalf("transport called %d times", conn.calls.Load())
	}
}

func TestUnaryMapsTransportErrors(t *testing.T) {
	t.Parallel()

	rateLimited := grpcstatus.New(codes.Canceled, "cancelled")
	rateLimited, err := rateLimited.WithDetails(&errdetails.DebugInfo{Detail: "HTTP 429"})
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	cases := []struct {
		name      string
		err       error
		want      status.Code
		retryable bool
	}{
		{"rate limited", rateLimited.Err(), status.TooManyRequests, true},
		{"unavailable", grpcstatus.Error(codes.Unavailable, "connection refused"), status.UnableToConnectToRobot, true},
		{"permission", grpcstatus.Error(codes.PermissionDenied, "no"), status.PermissionDenied, false},
		{"plain", errors.New("boom"), status.GenericSDKError, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConn{handler: func(context.Context, string, any) (any, error) { return nil, tc.err }}
			base := client.NewBase(conn, "svc")
			res := client.Unary(context.Background(), base, getEntry, &api.GetServiceEntryRequest{}, client.Params{}).Wait(context.Background())
			if res.Status.Code() != tc.want {
				t.Fatalf("code = %v, want %v", res.Status.Code(), tc.want)
			}
			if res.Status.IsRetryable() != tc.retryable {
				t.Fatalf("retryable = %v", res.Status.IsRetryable())
			}
		})
	}
}

func TestUnaryTimeoutMapsToTimedOut(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{handler: func(ctx context.Context, _ string, _ any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	base := client.NewBase(conn, "svc")
	res := client.Unary(context.Background(), base, getEntry, &api.GetServiceEntryRequest{},
		client.Params{Timeout: 20 * time.Millisecond}).Wait(context.Background())
	if res.Status.Code() != status.TimedOut {
		t.Fatalf("code = %v, want TimedOut", res.Status.Code())
	}
}

func TestUnaryResponseErrors(t *testing.T) {
	t.Parallel()

	header := &fakeConn{handler: func(context.Context, string, any) (any, error) {
		return &api.GetServiceEntryResponse{ResponseEnvelope: api.ResponseEnvelope{Header: &api.ResponseHeader{
			Error: &api.CommonError{Code: api.CommonErrorInternalServerError, Message: "robot sad"},
		}}}, nil
	}}
	res := client.Unary(context.Background(), client.NewBase(header, "svc"), getEntry, &api.GetServiceEntryRequest{}, client.Params{}).Wait(context.Background())
	if !res.Status.IsResponseError() || res.Status.Message() != "robot sad" {
		t.Fatalf("unexpected header status %v", res.Status)
	}

	app := &fakeConn{handler: func(context.Context, string, any) (any, error) {
		return &api.GetServiceEntryResponse{
			ResponseEnvelope: api.ResponseEnvelope{Header: okHeader()},
			Status:           api.GetServiceEntryStatusNonexistent,
		}, nil
	}}
	res = client.Unary(context.Background(), client.NewBase(app, "svc"), getEntry, &api.GetServiceEntryRequest{}, client.Params{}).Wait(context.Background())
	if res.Status.Code() != status.DirectoryCategory.Code(int32(api.GetServiceEntryStatusNonexistent)) {
		t.Fatalf("unexpected application status %v", res.Status)
	}
}

func TestFutureWaitHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	conn := &fakeConn{handler: func(context.Context, string, any) (any, error) {
		<-release
		return &api.GetServiceEntryResponse{}, nil
	}}
	f := client.Unary(context.Background(), client.NewBase(conn, "svc"), getEntry, &api.GetServiceEntryRequest{}, client.Params{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := f.Wait(ctx); res.Status.Code() != status.ClientCancelled {
		t.Fatalf("code = %v, want ClientCancelled", res.Status.Code())
	}
	close(release)
	<-f.Done()
}

func TestParamsEffectiveTimeout(t *testing.T) {
	t.Parallel()

	if got := (client.Params{}).EffectiveTimeout(); got != client.DefaultTimeout {
		t.Fatalf("zero timeout = %v", got)
	}
	if got := (client.Params{Timeout: -time.Second}).EffectiveTimeout(); got != client.DefaultTimeout {
		t.Fatalf("negative timeout = %v", got)
	}
	if got := (client.Params{Timeout: time.Second}).EffectiveTimeout(); got != time.Second {
		t.Fatalf("explicit timeout = %v", got)
	}
}

func TestBearerCredentials(t *testing.T) {
	t.Parallel()

	token := ""
	creds := client.BearerCredentials(func() string { return token }, true)
	md, err := creds.GetRequestMetadata(context.Background())
	if err != nil || len(md) != 0 {
		t.Fatalf("expected no metadata without token, got %v %v", md, err)
	}
	token = "abc"
	md, _ = creds.GetRequestMetadata(context.Background())
	if md["authorization"] != "Bearer abc" {
		t.Fatalf("unexpected metadata %v", md)
	}
	if !creds.RequireTransportSecurity() {
		t.Fatal("transport security flag lost")
	}
}
