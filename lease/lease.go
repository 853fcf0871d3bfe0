package lease

import (
	"fmt"
	"strconv"
	"strings"

	"pkt.systems/robocore/api"
)

// DefaultResource is the resource covering the whole robot body.
const DefaultResource = "body"

// CompareResult orders two leases.
type CompareResult int

const (
	// Same means both leases are identical.
	Same CompareResult = iota
	// SuperLease means the receiver is an ancestor of the other lease.
	SuperLease
	// SubLease means the receiver descends from the other lease.
	SubLease
	// Older means the receiver is earlier in the sequence order.
	Older
	// Newer means the receiver is later in the sequence order.
	Newer
	// DifferentResources means the leases cover different resources.
	DifferentResources
	// DifferentEpochs means the leases belong to different epochs and are
	// incomparable.
	DifferentEpochs
)

func (c CompareResult) String() string {
	switch c {
	case Same:
		return "SAME"
	case SuperLease:
		return "SUPER_LEASE"
	case SubLease:
		return "SUB_LEASE"
	case Older:
		return "OLDER"
	case Newer:
		return "NEWER"
	case DifferentResources:
		return "DIFFERENT_RESOURCES"
	case DifferentEpochs:
		return "DIFFERENT_EPOCHS"
	default:
		return "CompareResult(" + strconv.Itoa(int(c)) + ")"
	}
}

// Lease is an immutable lease value. Methods never modify the receiver.
type Lease struct {
	Resource    string
	Epoch       string
	Sequence    []int64
	ClientNames []string
}

// FromProto copies a wire lease. A nil lease yields the zero Lease.
func FromProto(p *api.Lease) Lease {
	if p == nil {
		return Lease{}
	}
	c := p.Clone()
	return Lease{Resource: c.Resource, Epoch: c.Epoch, Sequence: c.Sequence, ClientNames: c.ClientNames}
}

// Proto returns a fresh wire copy of l.
func (l Lease) Proto() *api.Lease {
	return (&api.Lease{
		Resource:    l.Resource,
		Epoch:       l.Epoch,
		Sequence:    l.Sequence,
		ClientNames: l.ClientNames,
	}).Clone()
}

// IsValid reports whether l names a resource, an epoch and a sequence.
func (l Lease) IsValid() bool {
	return l.Resource != "" && l.Epoch != "" && len(l.Sequence) > 0
}

// Compare orders l against other. Within one resource and epoch, sequences
// are compared position by position; when one is a prefix of the other the
// longer one is the sub-lease.
func (l Lease) Compare(other Lease) CompareResult {
	if l.Resource != other.Resource {
		return DifferentResources
	}
	if l.Epoch != other.Epoch {
		return DifferentEpochs
	}
	n := min(len(l.Sequence), len(other.Sequence))
	for i := 0; i < n; i++ {
		switch {
		case l.Sequence[i] < other.Sequence[i]:
			return Older
		case l.Sequence[i] > other.Sequence[i]:
			return Newer
		}
	}
	switch {
	case len(l.Sequence) == len(other.Sequence):
		return Same
	case len(l.Sequence) < len(other.Sequence):
		return SuperLease
	default:
		return SubLease
	}
}

// Dominates reports whether l supersedes other: it is newer at the first
// differing position, or it extends other.
func (l Lease) Dominates(other Lease) bool {
	switch l.Compare(other) {
	case Newer, SubLease:
		return true
	default:
		return false
	}
}

// Equal reports whether l and other are the same lease, client names
// included.
func (l Lease) Equal(other Lease) bool {
	if l.Compare(other) != Same || len(l.ClientNames) != len(other.ClientNames) {
		return false
	}
	for i := range l.ClientNames {
		if l.ClientNames[i] != other.ClientNames[i] {
			return false
		}
	}
	return true
}

// Advance returns the next lease of the same holder: the last sequence
// element is incremented.
func (l Lease) Advance() Lease {
	out := l.clone()
	if len(out.Sequence) == 0 {
		out.Sequence = []int64{1}
		return out
	}
	out.Sequence[len(out.Sequence)-1]++
	return out
}

// Increment returns a sub-lease of l, used to delegate authority while the
// parent keeps an older revision.
func (l Lease) Increment() Lease {
	out := l.clone()
	out.Sequence = append(out.Sequence, 1)
	return out
}

// SubLeaseFor is Increment that also records the delegate's client name.
func (l Lease) SubLeaseFor(clientName string) Lease {
	out := l.Increment()
	if clientName != "" {
		out.ClientNames = append(out.ClientNames, clientName)
	}
	return out
}

func (l Lease) clone() Lease {
	return FromProto(l.Proto())
}

// String renders the lease as resource@epoch[1 2 3].
func (l Lease) String() string {
	parts := make([]string, len(l.Sequence))
	for i, v := range l.Sequence {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return fmt.Sprintf("%s@%s[%s]", l.Resource, l.Epoch, strings.Join(parts, " "))
}
