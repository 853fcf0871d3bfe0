package lease

import (
	"context"
	"fmt"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/processor"
	"pkt.systems/robocore/status"
)

// RequestProcessor attaches a freshly advanced wallet lease to requests with
// a single lease field. Requests that already carry a lease are left alone.
type RequestProcessor struct {
	Wallet   *Wallet
	Resource string
}

// NewRequestProcessor returns a RequestProcessor for resource.
func NewRequestProcessor(w *Wallet, resource string) RequestProcessor {
	return RequestProcessor{Wallet: w, Resource: resource}
}

// ProcessRequest implements processor.RequestProcessor.
func (p RequestProcessor) ProcessRequest(_ context.Context, _ processor.Call, req api.Request) error {
	lr, ok := req.(api.LeaseRequest)
	if !ok || lr.GetLease() != nil || p.Resource == "" || p.Wallet == nil {
		return nil
	}
	l, err := p.Wallet.AdvanceLease(p.Resource)
	if err != nil {
		return status.FromError(err).Chain("attach lease")
	}
	lr.SetLease(l.Proto())
	return nil
}

// MultiRequestProcessor attaches one advanced lease per resource to requests
// with a repeated lease field.
type MultiRequestProcessor struct {
	Wallet    *Wallet
	Resources []string
}

// NewMultiRequestProcessor returns a MultiRequestProcessor for resources.
func NewMultiRequestProcessor(w *Wallet, resources ...string) MultiRequestProcessor {
	return MultiRequestProcessor{Wallet: w, Resources: resources}
}

// ProcessRequest implements processor.RequestProcessor.
func (p MultiRequestProcessor) ProcessRequest(_ context.Context, _ processor.Call, req api.Request) error {
	mr, ok := req.(api.MultiLeaseRequest)
	if !ok || len(mr.GetLeases()) > 0 || p.Wallet == nil {
		return nil
	}
	leases := make([]*api.Lease, 0, len(p.Resources))
	for _, resource := range p.Resources {
		if resource == "" {
			continue
		}
		l, err := p.Wallet.AdvanceLease(resource)
		if err != nil {
			return status.FromError(err).Chain("attach leases")
		}
		leases = append(leases, l.Proto())
	}
	if len(leases) > 0 {
		mr.SetLeases(leases)
	}
	return nil
}

// ResponseProcessor feeds lease use results into the wallet. Any rejected
// result becomes a LeaseUseResult error; the first one is returned.
type ResponseProcessor struct {
	Wallet *Wallet
}

// NewResponseProcessor returns a ResponseProcessor for w.
func NewResponseProcessor(w *Wallet) ResponseProcessor {
	return ResponseProcessor{Wallet: w}
}

// ProcessResponse implements processor.ResponseProcessor.
func (p ResponseProcessor) ProcessResponse(_ context.Context, _ processor.Call, resp api.Response) error {
	lr, ok := resp.(api.LeaseUseResponse)
	if !ok {
		return nil
	}
	var first error
	for _, result := range lr.GetLeaseUseResults() {
		if result == nil {
			continue
		}
		if p.Wallet != nil {
			p.Wallet.OnLeaseUseResult(result)
		}
		if first == nil {
			first = UseResultStatus(result).Err()
		}
	}
	return first
}

// UseResultStatus maps a lease use result onto a status.
func UseResultStatus(result *api.LeaseUseResult) status.Status {
	if result == nil {
		return status.OK
	}
	msg := ""
	if result.Status != api.LeaseUseStatusOK {
		msg = fmt.Sprintf("lease %s rejected: %s",
			FromProto(result.AttemptedLease),
			status.LeaseUseResultCategory.Code(int32(result.Status)))
	}
	return status.FromResponse(status.LeaseUseResultCategory, int32(result.Status), msg)
}

// Install adds the single-lease request processor for resource and the
// response processor to chain.
func Install(chain *processor.Chain, w *Wallet, resource string) {
	chain.AppendRequest(NewRequestProcessor(w, resource))
	chain.AppendResponse(NewResponseProcessor(w))
}
