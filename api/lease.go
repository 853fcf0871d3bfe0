package api

// Lease is the wire form of a resource lease.
type Lease struct {
	// Resource names the robot resource the lease covers ("body", "arm", ...).
	Resource string `json:"resource,omitempty"`
	// Epoch scopes the sequence; leases from different epochs are incomparable.
	Epoch string `json:"epoch,omitempty"`
	// Sequence orders leases within an epoch.
	Sequence []int64 `json:"sequence,omitempty"`
	// ClientNames lists the clients that have held or delegated this lease.
	ClientNames []string `json:"client_names,omitempty"`
}

// Clone returns a deep copy of l.
func (l *Lease) Clone() *Lease {
	if l == nil {
		return nil
	}
	out := &Lease{Resource: l.Resource, Epoch: l.Epoch}
	if len(l.Sequence) > 0 {
		out.Sequence = append([]int64(nil), l.Sequence...)
	}
	if len(l.ClientNames) > 0 {
		out.ClientNames = append([]string(nil), l.ClientNames...)
	}
	return out
}

// GetResource returns the resource, or "" for a nil lease.
func (l *Lease) GetResource() string {
	if l == nil {
		return ""
	}
	return l.Resource
}

// LeaseOwner describes who holds a lease.
type LeaseOwner struct {
	ClientName string `json:"client_name,omitempty"`
	UserName   string `json:"user_name,omitempty"`
}

// LeaseUseStatus is the server verdict on a lease presented with a request.
type LeaseUseStatus int32

const (
	LeaseUseStatusUnknown            LeaseUseStatus = 0
	LeaseUseStatusOK                 LeaseUseStatus = 1
	LeaseUseStatusOlder              LeaseUseStatus = 2
	LeaseUseStatusRevoked            LeaseUseStatus = 3
	LeaseUseStatusWrongEpoch         LeaseUseStatus = 4
	LeaseUseStatusUnmanaged          LeaseUseStatus = 5
	LeaseUseStatusLaterLeaseAcquired LeaseUseStatus = 6
)

// LeaseUseResult reports how the robot judged a presented lease.
type LeaseUseResult struct {
	Status           LeaseUseStatus `json:"status,omitempty"`
	Owner            *LeaseOwner    `json:"owner,omitempty"`
	AttemptedLease   *Lease         `json:"attempted_lease,omitempty"`
	PreviousLease    *Lease         `json:"previous_lease,omitempty"`
	LatestKnownLease *Lease         `json:"latest_known_lease,omitempty"`
	LatestResources  []*Lease       `json:"latest_resources,omitempty"`
}

// LeaseRequest is implemented by requests carrying a single lease field.
type LeaseRequest interface {
	Request
	GetLease() *Lease
	SetLease(*Lease)
}

// MultiLeaseRequest is implemented by requests carrying a repeated lease field.
type MultiLeaseRequest interface {
	Request
	GetLeases() []*Lease
	SetLeases([]*Lease)
}

// LeaseUseResponse is implemented by responses reporting lease use results.
type LeaseUseResponse interface {
	Response
	GetLeaseUseResults() []*LeaseUseResult
}

// AcquireLeaseStatus is the application status of AcquireLease.
type AcquireLeaseStatus int32

const (
	AcquireLeaseStatusUnknown                 AcquireLeaseStatus = 0
	AcquireLeaseStatusOK                      AcquireLeaseStatus = 1
	AcquireLeaseStatusResourceAlreadyClaimed  AcquireLeaseStatus = 2
	AcquireLeaseStatusInvalidResource         AcquireLeaseStatus = 3
	AcquireLeaseStatusNotAuthoritativeService AcquireLeaseStatus = 4
)

// AcquireLeaseRequest asks for a lease on a free resource.
type AcquireLeaseRequest struct {
	RequestEnvelope
	Resource string `json:"resource,omitempty"`
}

// AcquireLeaseResponse carries the granted lease.
type AcquireLeaseResponse struct {
	ResponseEnvelope
	Status     AcquireLeaseStatus `json:"status,omitempty"`
	Lease      *Lease             `json:"lease,omitempty"`
	LeaseOwner *LeaseOwner        `json:"lease_owner,omitempty"`
}

// TakeLeaseStatus is the application status of TakeLease.
type TakeLeaseStatus int32

const (
	TakeLeaseStatusUnknown                 TakeLeaseStatus = 0
	TakeLeaseStatusOK                      TakeLeaseStatus = 1
	TakeLeaseStatusInvalidResource         TakeLeaseStatus = 2
	TakeLeaseStatusNotAuthoritativeService TakeLeaseStatus = 3
)

// TakeLeaseRequest forcibly takes a lease regardless of the current owner.
type TakeLeaseRequest struct {
	RequestEnvelope
	Resource string `json:"resource,omitempty"`
}

// TakeLeaseResponse carries the taken lease.
type TakeLeaseResponse struct {
	ResponseEnvelope
	Status     TakeLeaseStatus `json:"status,omitempty"`
	Lease      *Lease          `json:"lease,omitempty"`
	LeaseOwner *LeaseOwner     `json:"lease_owner,omitempty"`
}

// ReturnLeaseStatus is the application status of ReturnLease.
type ReturnLeaseStatus int32

const (
	ReturnLeaseStatusUnknown                 ReturnLeaseStatus = 0
	ReturnLeaseStatusOK                      ReturnLeaseStatus = 1
	ReturnLeaseStatusInvalidResource         ReturnLeaseStatus = 2
	ReturnLeaseStatusNotActiveLease          ReturnLeaseStatus = 3
	ReturnLeaseStatusNotAuthoritativeService ReturnLeaseStatus = 4
)

// ReturnLeaseRequest gives a lease back to the robot.
type ReturnLeaseRequest struct {
	RequestEnvelope
	Lease *Lease `json:"lease,omitempty"`
}

// ReturnLeaseResponse acknowledges a returned lease.
type ReturnLeaseResponse struct {
	ResponseEnvelope
	Status ReturnLeaseStatus `json:"status,omitempty"`
}

// RetainLeaseRequest keeps a lease alive without advancing it.
type RetainLeaseRequest struct {
	RequestEnvelope
	Lease *Lease `json:"lease,omitempty"`
}

// GetLease returns the lease carried by the request.
func (r *RetainLeaseRequest) GetLease() *Lease { return r.Lease }

// SetLease replaces the lease carried by the request.
func (r *RetainLeaseRequest) SetLease(l *Lease) { r.Lease = l }

// RetainLeaseResponse reports the lease use result of a retain.
type RetainLeaseResponse struct {
	ResponseEnvelope
	LeaseUseResult *LeaseUseResult `json:"lease_use_result,omitempty"`
}

// GetLeaseUseResults returns the single lease use result as a slice.
func (r *RetainLeaseResponse) GetLeaseUseResults() []*LeaseUseResult {
	if r == nil || r.LeaseUseResult == nil {
		return nil
	}
	return []*LeaseUseResult{r.LeaseUseResult}
}

// LeaseResource describes the lease state of one resource.
type LeaseResource struct {
	Resource   string      `json:"resource,omitempty"`
	Lease      *Lease      `json:"lease,omitempty"`
	LeaseOwner *LeaseOwner `json:"lease_owner,omitempty"`
	IsStale    bool        `json:"is_stale,omitempty"`
}

// ListLeasesRequest asks for the lease state of every resource.
type ListLeasesRequest struct {
	RequestEnvelope
	IncludeFullLeaseInfo bool `json:"include_full_lease_info,omitempty"`
}

// ListLeasesResponse lists resources with their leases.
type ListLeasesResponse struct {
	ResponseEnvelope
	Resources []*LeaseResource `json:"resources,omitempty"`
}
