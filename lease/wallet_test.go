package lease_test

import (
	"sync"
	"testing"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/status"
)

func TestAddThenGetReturnsSameLease(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	l := lease.Lease{Resource: "body", Epoch: "ep1", Sequence: []int64{3}, ClientNames: []string{"me"}}
	if err := w.AddLease(l); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := w.GetLease("body")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(l) {
		t.Fatalf("got %s, want %s", got, l)
	}
}

func TestAddLeaseRequiresDominance(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	if err := w.AddLease(body(5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.AddLease(body(5)); err != nil {
		t.Fatalf("re-adding the same lease should succeed: %v", err)
	}
	if err := w.AddLease(body(4)); !status.Is(err, status.LeaseInvalid) {
		t.Fatalf("older lease must be rejected, got %v", err)
	}
	if err := w.AddLease(lease.Lease{Resource: "body", Epoch: "ep2", Sequence: []int64{1}}); !status.Is(err, status.LeaseInvalid) {
		t.Fatalf("other epoch must be rejected, got %v", err)
	}
	if err := w.AddLease(body(6)); err != nil {
		t.Fatalf("newer lease must replace: %v", err)
	}
	got, _ := w.GetLease("body")
	if got.String() != "body@ep1[6]" {
		t.Fatalf("held = %s", got)
	}
	if err := w.AddLease(lease.Lease{Resource: "body"}); !status.Is(err, status.LeaseInvalid) {
		t.Fatalf("invalid lease must be rejected, got %v", err)
	}
}

func TestReplaceLeaseIgnoresOrdering(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	_ = w.AddLease(body(9))
	taken := lease.Lease{Resource: "body", Epoch: "ep2", Sequence: []int64{1}}
	if err := w.ReplaceLease(taken); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := w.GetLease("body")
	if !got.Equal(taken) {
		t.Fatalf("held = %s", got)
	}
}

func TestMissingResource(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	if _, err := w.GetLease("arm"); !status.Is(err, status.ResourceNotInWallet) {
		t.Fatalf("get: %v", err)
	}
	if _, err := w.AdvanceLease("arm"); !status.Is(err, status.ResourceNotInWallet) {
		t.Fatalf("advance: %v", err)
	}
	if err := w.RemoveLease("arm"); !status.Is(err, status.ResourceNotInWallet) {
		t.Fatalf("remove: %v", err)
	}
}

func TestConcurrentAdvanceIsStrictlyOrdered(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	if err := w.AddLease(body(3)); err != nil {
		t.Fatalf("add: %v", err)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := w.AdvanceLease("body")
			if err != nil {
				t.Errorf("advance: %v", err)
				return
			}
			mu.Lock()
			seen[l.Sequence[0]] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if !seen[4] || !seen[5] || len(seen) != 2 {
		t.Fatalf("expected sequences 4 and 5, got %v", seen)
	}
	held, _ := w.GetLease("body")
	if held.String() != "body@ep1[5]" {
		t.Fatalf("wallet holds %s, want [5]", held)
	}
}

func TestManyConcurrentAdvances(t *testing.T) {
	t.Parallel()

	const n = 64
	w := lease.NewWallet()
	_ = w.AddLease(body(0))
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := w.AdvanceLease("body")
			if err == nil {
				results <- l.Sequence[0]
			}
		}()
	}
	wg.Wait()
	close(results)
	seen := map[int64]bool{}
	for v := range results {
		if seen[v] {
			t.Fatalf("sequence %d handed out twice", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct sequences", len(seen))
	}
}

func TestOlderResultDropsLease(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet()
	_ = w.AddLease(body(7))
	w.OnLeaseUseResult(&api.LeaseUseResult{
		Status:         api.LeaseUseStatusOlder,
		AttemptedLease: &api.Lease{Resource: "body", Epoch: "ep1", Sequence: []int64{6}},
	})
	if _, err := w.GetLease("body"); !status.Is(err, status.ResourceNotInWallet) {
		t.Fatalf("expected ResourceNotInWallet, got %v", err)
	}
	if err := w.AddLease(body(8)); err != nil {
		t.Fatalf("a new lease must be accepted after a drop: %v", err)
	}
}

func TestRejectionsDropButOKAndUnknownDoNot(t *testing.T) {
	t.Parallel()

	rejections := []api.LeaseUseStatus{
		api.LeaseUseStatusOlder,
		api.LeaseUseStatusWrongEpoch,
		api.LeaseUseStatusRevoked,
		api.LeaseUseStatusLaterLeaseAcquired,
		api.LeaseUseStatusUnmanaged,
	}
	for _, st := range rejections {
		w := lease.NewWallet()
		_ = w.AddLease(body(1))
		w.OnLeaseUseResult(&api.LeaseUseResult{Status: st, AttemptedLease: body(1).Proto()})
		if len(w.Resources()) != 0 {
			t.Fatalf("status %d should drop the lease", st)
		}
	}
	for _, st := range []api.LeaseUseStatus{api.LeaseUseStatusOK, api.LeaseUseStatusUnknown} {
		w := lease.NewWallet()
		_ = w.AddLease(body(1))
		w.OnLeaseUseResult(&api.LeaseUseResult{Status: st, AttemptedLease: body(1).Proto()})
		if len(w.Resources()) != 1 {
			t.Fatalf("status %d should keep the lease", st)
		}
	}
}

func TestResourcesAndGetAll(t *testing.T) {
	t.Parallel()

	w := lease.NewWallet(lease.WithClientName("ctl"))
	_ = w.AddLease(lease.Lease{Resource: "body", Epoch: "e", Sequence: []int64{1}})
	_ = w.AddLease(lease.Lease{Resource: "arm", Epoch: "e", Sequence: []int64{1}})
	if got := w.Resources(); len(got) != 2 || got[0] != "arm" || got[1] != "body" {
		t.Fatalf("resources = %v", got)
	}
	all := w.GetAllLeases()
	delete(all, "arm")
	if len(w.Resources()) != 2 {
		t.Fatal("GetAllLeases must return a copy")
	}
	if w.ClientName() != "ctl" {
		t.Fatalf("client name = %q", w.ClientName())
	}
}
