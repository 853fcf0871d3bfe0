package estop_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/status"
)

type fakeService struct {
	mu         sync.Mutex
	checkIns   []*api.EstopCheckInRequest
	ignored    []bool
	respond    func(n int, req *api.EstopCheckInRequest) (*api.EstopCheckInResponse, error)
	active     *api.EstopConfig
	setTarget  string
	setConfig  *api.EstopConfig
	registered []string
	deregister []string
	calls      chan struct{}
}

func newFakeService(respond func(n int, req *api.EstopCheckInRequest) (*api.EstopCheckInResponse, error)) *fakeService {
	if respond == nil {
		respond = func(n int, _ *api.EstopCheckInRequest) (*api.EstopCheckInResponse, error) {
			return &api.EstopCheckInResponse{Challenge: uint64(n), Status: api.EstopCheckInStatusOK}, nil
		}
	}
	return &fakeService{respond: respond, calls: make(chan struct{}, 64)}
}

func (f *fakeService) Register(_ context.Context, targetConfigID string, _, replacement *api.EstopEndpoint, _ client.Params) (*api.EstopEndpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, targetConfigID)
	out := *replacement
	out.UniqueID = "uid-1"
	return &out, nil
}

func (f *fakeService) Deregister(_ context.Context, targetConfigID string, _ *api.EstopEndpoint, _ client.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deregister = append(f.deregister, targetConfigID)
	return nil
}

func (f *fakeService) GetConfig(context.Context, string, client.Params) (*api.EstopConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeService) SetConfig(_ context.Context, cfg *api.EstopConfig, targetConfigID string, _ client.Params) (*api.EstopConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTarget = targetConfigID
	f.setConfig = cfg
	out := &api.EstopConfig{UniqueID: "cfg-2"}
	for _, ep := range cfg.Endpoints {
		cp := *ep
		cp.UniqueID = "uid-0"
		out.Endpoints = append(out.Endpoints, &cp)
	}
	f.active = out
	return out, nil
}

func (f *fakeService) CheckIn(_ context.Context, req *api.EstopCheckInRequest, ignoreStatus bool, _ client.Params) (*api.EstopCheckInResponse, error) {
	f.mu.Lock()
	f.checkIns = append(f.checkIns, req)
	f.ignored = append(f.ignored, ignoreStatus)
	n := len(f.checkIns)
	f.mu.Unlock()
	defer func() {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}()
	resp, err := f.respond(n, req)
	if err != nil {
		return nil, err
	}
	if !ignoreStatus {
		if st := status.FromResponse(status.EstopCheckInCategory, int32(resp.Status), ""); !st.OK() {
			return resp, st.Err()
		}
	}
	return resp, nil
}

func (f *fakeService) checkIn(i int) (*api.EstopCheckInRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkIns[i], f.ignored[i]
}

func (f *fakeService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkIns)
}

func waitCheckIn(t *testing.T, f *fakeService) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a check-in")
	}
}
