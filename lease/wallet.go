package lease

import (
	"sort"
	"sync"

	"pkt.systems/pslog"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/internal/loggingutil"
	"pkt.systems/robocore/status"
)

// Wallet holds at most one lease per resource. Every operation takes the
// wallet mutex, so concurrent AdvanceLease calls hand out strictly ordered
// sequences.
type Wallet struct {
	mu         sync.Mutex
	leases     map[string]Lease
	clientName string
	logger     pslog.Logger
}

// WalletOption customises a Wallet.
type WalletOption func(*Wallet)

// WithWalletLogger supplies a logger for wallet changes.
func WithWalletLogger(logger pslog.Logger) WalletOption {
	return func(w *Wallet) {
		w.logger = logger
	}
}

// WithClientName records the name the wallet's owner uses with the robot.
func WithClientName(name string) WalletOption {
	return func(w *Wallet) {
		w.clientName = name
	}
}

// NewWallet returns an empty wallet.
func NewWallet(opts ...WalletOption) *Wallet {
	w := &Wallet{leases: make(map[string]Lease)}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.logger = loggingutil.Subsystem(w.logger, "lease.wallet")
	return w
}

// ClientName returns the name set with WithClientName.
func (w *Wallet) ClientName() string {
	return w.clientName
}

// AddLease stores l for its resource. An existing entry is replaced only
// when l dominates it; adding an identical lease is a no-op.
func (w *Wallet) AddLease(l Lease) error {
	if !l.IsValid() {
		return status.Newf(status.LeaseInvalid, "cannot add invalid lease %s", l)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	held, ok := w.leases[l.Resource]
	if ok {
		switch cmp := l.Compare(held); cmp {
		case Same:
			return nil
		case Newer, SubLease:
		default:
			return status.Newf(status.LeaseInvalid, "lease %s does not supersede held lease %s (%s)", l, held, cmp)
		}
	}
	w.leases[l.Resource] = l.clone()
	w.logger.Debug("lease.wallet.add", "resource", l.Resource, "lease", l.String())
	return nil
}

// ReplaceLease stores l regardless of any held lease. It is used after a
// forcible take, where the robot has just issued l.
func (w *Wallet) ReplaceLease(l Lease) error {
	if !l.IsValid() {
		return status.Newf(status.LeaseInvalid, "cannot add invalid lease %s", l)
	}
	w.mu.Lock()
	w.leases[l.Resource] = l.clone()
	w.mu.Unlock()
	w.logger.Debug("lease.wallet.replace", "resource", l.Resource, "lease", l.String())
	return nil
}

// GetLease returns a copy of the lease held for resource.
func (w *Wallet) GetLease(resource string) (Lease, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.leases[resource]
	if !ok {
		return Lease{}, notInWallet(resource)
	}
	return l.clone(), nil
}

// AdvanceLease advances the lease held for resource, stores it and returns a
// copy.
func (w *Wallet) AdvanceLease(resource string) (Lease, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.leases[resource]
	if !ok {
		return Lease{}, notInWallet(resource)
	}
	next := l.Advance()
	w.leases[resource] = next
	return next.clone(), nil
}

// RemoveLease drops the lease held for resource.
func (w *Wallet) RemoveLease(resource string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.leases[resource]; !ok {
		return notInWallet(resource)
	}
	delete(w.leases, resource)
	w.logger.Debug("lease.wallet.remove", "resource", resource)
	return nil
}

// Resources returns the held resources in sorted order.
func (w *Wallet) Resources() []string {
	w.mu.Lock()
	out := make([]string, 0, len(w.leases))
	for r := range w.leases {
		out = append(out, r)
	}
	w.mu.Unlock()
	sort.Strings(out)
	return out
}

// GetAllLeases returns copies of every held lease keyed by resource.
func (w *Wallet) GetAllLeases() map[string]Lease {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Lease, len(w.leases))
	for r, l := range w.leases {
		out[r] = l.clone()
	}
	return out
}

// OnLeaseUseResult ingests a server verdict. Any rejection drops the lease
// held for the attempted resource so later requests fail cleanly instead of
// resending a known-bad token.
func (w *Wallet) OnLeaseUseResult(result *api.LeaseUseResult) {
	if result == nil || result.Status == api.LeaseUseStatusOK {
		return
	}
	switch result.Status {
	case api.LeaseUseStatusOlder, api.LeaseUseStatusWrongEpoch, api.LeaseUseStatusRevoked,
		api.LeaseUseStatusLaterLeaseAcquired, api.LeaseUseStatusUnmanaged:
	default:
		return
	}
	resource := result.AttemptedLease.GetResource()
	if resource == "" {
		return
	}
	w.mu.Lock()
	_, held := w.leases[resource]
	delete(w.leases, resource)
	w.mu.Unlock()
	if held {
		w.logger.Info("lease.wallet.dropped",
			"resource", resource,
			"verdict", status.LeaseUseResultCategory.Code(int32(result.Status)).String(),
		)
	}
}

func notInWallet(resource string) status.Status {
	return status.Newf(status.ResourceNotInWallet, "no lease for resource %q", resource)
}
