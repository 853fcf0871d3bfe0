package lease_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"google.golang.org/grpc"
)

// fakeLeaseService answers lease RPCs from per-method handlers.
type fakeLeaseService struct {
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]func(req any) (any, error)
}

func newFakeLeaseService() *fakeLeaseService {
	return &fakeLeaseService{calls: map[string]int{}, handlers: map[string]func(any) (any, error){}}
}

func (f *fakeLeaseService) handle(method string, fn func(req any) (any, error)) {
	f.mu.Lock()
	f.handlers[method] = fn
	f.mu.Unlock()
}

func (f *fakeLeaseService) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLeaseService) Invoke(_ context.Context, method string, args any, reply any, _ ...grpc.CallOption) error {
	name := method[strings.LastIndex(method, "/")+1:]
	f.mu.Lock()
	f.calls[name]++
	fn := f.handlers[name]
	f.mu.Unlock()
	out, err := fn(args)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, reply)
}

func (f *fakeLeaseService) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	panic("not used")
}
