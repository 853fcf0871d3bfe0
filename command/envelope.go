// Package command sends robot commands expressed in local time.
//
// Callers write end times against their own clock. Before dispatch the
// envelope stamps the request header, attaches the lease and rewrites every
// end time into robot time using the current time-sync estimate.
package command

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/internal/clock"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/status"
	"pkt.systems/robocore/timesync"
)

// TimeSource reports the robot clock commands are expressed in. Both
// timesync.Endpoint and timesync.Keeper implement it.
type TimeSource interface {
	ClockIdentifier() string
	Converter() (timesync.Converter, error)
}

// Envelope holds what is stamped on every outgoing command.
type Envelope struct {
	ClientName string
	Clock      clock.Clock
	// Wallet supplies the lease of requests that do not carry one. Nil
	// leaves the lease field alone.
	Wallet *lease.Wallet
	// Resource defaults to lease.DefaultResource.
	Resource string
	TimeSync TimeSource
}

// Stamp returns a copy of req ready for dispatch. req and its command are not
// modified.
func (e Envelope) Stamp(req *api.RobotCommandRequest) (*api.RobotCommandRequest, error) {
	if e.TimeSync == nil {
		return nil, status.New(status.TimeSyncNotEstablished, "no time sync source for command end times")
	}
	id := e.TimeSync.ClockIdentifier()
	if id == "" {
		return nil, status.New(status.TimeSyncNotEstablished, "robot clock identifier not yet known")
	}
	conv, err := e.TimeSync.Converter()
	if err != nil {
		return nil, err
	}

	out := &api.RobotCommandRequest{
		Lease:           req.GetLease(),
		Command:         Retarget(req.Command, conv),
		ClockIdentifier: id,
	}
	out.Header = &api.RequestHeader{
		ClientName:       e.ClientName,
		RequestTimestamp: timestamppb.New(clock.Or(e.Clock).Now()),
	}
	if h := req.GetHeader(); h != nil {
		out.Header.DisableRPCLogging = h.DisableRPCLogging
	}
	if out.Lease == nil && e.Wallet != nil {
		resource := e.Resource
		if resource == "" {
			resource = lease.DefaultResource
		}
		l, err := e.Wallet.AdvanceLease(resource)
		if err != nil {
			return nil, status.FromError(err).Chain("attach command lease")
		}
		out.Lease = l.Proto()
	}
	return out, nil
}

// Retarget returns a deep copy of cmd with every end time moved from local
// time into robot time. Variants without end times pass through unchanged.
func Retarget(cmd *api.RobotCommand, conv timesync.Converter) *api.RobotCommand {
	out := cmd.Clone()
	out.RetargetEndTimes(conv.EndTimeFunc())
	return out
}
