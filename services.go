package robocore

import (
	"google.golang.org/grpc"

	"pkt.systems/robocore/auth"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/command"
	"pkt.systems/robocore/directory"
	"pkt.systems/robocore/estop"
	"pkt.systems/robocore/lease"
	"pkt.systems/robocore/timesync"
)

// ServiceFactory builds the client for one named service.
type ServiceFactory struct {
	// Type is the gRPC service the directory must report for the name.
	Type string
	// Authority overrides the directory lookup for bootstrap services.
	Authority string
	New       func(r *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any
}

func defaultFactories() map[string]ServiceFactory {
	return map[string]ServiceFactory{
		auth.ServiceName: {
			Type:      auth.ServiceType,
			Authority: auth.Authority,
			New: func(_ *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return auth.NewClient(conn, opts...)
			},
		},
		directory.ServiceName: {
			Type:      directory.ServiceType,
			Authority: directory.Authority,
			New: func(_ *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return directory.NewClient(conn, opts...)
			},
		},
		lease.ServiceName: {
			Type: lease.ServiceType,
			New: func(r *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return lease.NewClient(conn, r.wallet, opts...)
			},
		},
		timesync.ServiceName: {
			Type: timesync.ServiceType,
			New: func(_ *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return timesync.NewClient(conn, opts...)
			},
		},
		estop.ServiceName: {
			Type: estop.ServiceType,
			New: func(_ *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return estop.NewClient(conn, opts...)
			},
		},
		command.ServiceName: {
			Type: command.ServiceType,
			New: func(r *Robot, conn grpc.ClientConnInterface, opts ...client.Option) any {
				return command.NewClient(conn, command.Envelope{
					ClientName: r.clientName,
					Clock:      r.clock,
					Wallet:     r.wallet,
					Resource:   lease.DefaultResource,
					TimeSync:   robotTime{r},
				}, opts...)
			},
		},
	}
}

// robotTime resolves the robot's time-sync keeper at stamp time, so a command
// client created before StartTimeSync picks up the estimate once it exists.
type robotTime struct {
	r *Robot
}

func (t robotTime) ClockIdentifier() string {
	if k := t.r.TimeSync(); k != nil {
		return k.ClockIdentifier()
	}
	return ""
}

func (t robotTime) Converter() (timesync.Converter, error) {
	k := t.r.TimeSync()
	if k == nil {
		return timesync.Converter{}, errTimeSyncNotStarted
	}
	return k.Converter()
}
