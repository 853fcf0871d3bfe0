package timesync_test

import (
	"context"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
)

type fakeUpdater struct {
	mu       sync.Mutex
	requests []*api.TimeSyncUpdateRequest
	reply    func(n int, req *api.TimeSyncUpdateRequest) (*api.TimeSyncUpdateResponse, error)
	calls    chan struct{}
	// block makes every exchange wait for its context.
	block bool
}

func newFakeUpdater(reply func(n int, req *api.TimeSyncUpdateRequest) (*api.TimeSyncUpdateResponse, error)) *fakeUpdater {
	return &fakeUpdater{reply: reply, calls: make(chan struct{}, 64)}
}

func (f *fakeUpdater) TimeSyncUpdate(ctx context.Context, req *api.TimeSyncUpdateRequest, _ client.Params) (*api.TimeSyncUpdateResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	block := f.block
	f.mu.Unlock()
	defer func() {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.reply(n, req)
}

func (f *fakeUpdater) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeUpdater) request(i int) *api.TimeSyncUpdateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

var robotEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func syncedResponse(id string, skew time.Duration) *api.TimeSyncUpdateResponse {
	return &api.TimeSyncUpdateResponse{
		ResponseEnvelope: api.ResponseEnvelope{Header: &api.ResponseHeader{
			RequestReceivedTimestamp: timestamppb.New(robotEpoch),
			ResponseTimestamp:        timestamppb.New(robotEpoch.Add(time.Millisecond)),
		}},
		ClockIdentifier: id,
		State: &api.TimeSyncState{
			Status: api.TimeSyncStatusOK,
			BestEstimate: &api.TimeSyncEstimate{
				ClockSkew:     durationpb.New(skew),
				RoundTripTime: durationpb.New(4 * time.Millisecond),
			},
		},
	}
}

func pendingResponse(id string) *api.TimeSyncUpdateResponse {
	return &api.TimeSyncUpdateResponse{
		ClockIdentifier: id,
		State:           &api.TimeSyncState{Status: api.TimeSyncStatusMoreSamplesNeeded},
	}
}
