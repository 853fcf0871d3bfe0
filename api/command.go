package api

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// EndTimeFunc maps an end time expressed in one clock into another.
type EndTimeFunc func(*timestamppb.Timestamp) *timestamppb.Timestamp

// SE2Velocity is a planar velocity.
type SE2Velocity struct {
	LinearX float64 `json:"linear_x,omitempty"`
	LinearY float64 `json:"linear_y,omitempty"`
	Angular float64 `json:"angular,omitempty"`
}

// SE2Pose is a planar pose.
type SE2Pose struct {
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Angle float64 `json:"angle,omitempty"`
}

// SE2VelocityCommand drives the base at a velocity until EndTime.
type SE2VelocityCommand struct {
	EndTime   *timestamppb.Timestamp `json:"end_time,omitempty"`
	Velocity  *SE2Velocity           `json:"velocity,omitempty"`
	FrameName string                 `json:"se2_frame_name,omitempty"`
}

// SE2TrajectoryCommand drives the base to a goal pose before EndTime.
type SE2TrajectoryCommand struct {
	EndTime   *timestamppb.Timestamp `json:"end_time,omitempty"`
	GoalPose  *SE2Pose               `json:"goal_pose,omitempty"`
	FrameName string                 `json:"se2_frame_name,omitempty"`
}

// StandCommand makes the robot stand. It carries no end time.
type StandCommand struct{}

// StopCommand stops the base. It carries no end time.
type StopCommand struct{}

// MobilityCommand is the mobility variant. Exactly one field is set.
type MobilityCommand struct {
	SE2VelocityRequest   *SE2VelocityCommand   `json:"se2_velocity_request,omitempty"`
	SE2TrajectoryRequest *SE2TrajectoryCommand `json:"se2_trajectory_request,omitempty"`
	StandRequest         *StandCommand         `json:"stand_request,omitempty"`
	StopRequest          *StopCommand          `json:"stop_request,omitempty"`
}

// SynchronizedCommand groups sub-commands that start together.
type SynchronizedCommand struct {
	MobilityCommand *MobilityCommand `json:"mobility_command,omitempty"`
}

// FreezeCommand freezes every joint. It carries no end time.
type FreezeCommand struct{}

// SelfRightCommand rolls the robot upright. It carries no end time.
type SelfRightCommand struct{}

// RobotCommand is the top-level command. Exactly one variant is set.
type RobotCommand struct {
	MobilityCommand     *MobilityCommand     `json:"mobility_command,omitempty"`
	SynchronizedCommand *SynchronizedCommand `json:"synchronized_command,omitempty"`
	FreezeCommand       *FreezeCommand       `json:"freeze_command,omitempty"`
	SelfRightCommand    *SelfRightCommand    `json:"self_right_command,omitempty"`
}

// CommandVariant is implemented by every command variant that may carry
// time-bearing fields.
type CommandVariant interface {
	// RetargetEndTimes rewrites every end time in place through fn.
	RetargetEndTimes(fn EndTimeFunc)
}

// Variant returns the populated variant of c, or nil.
func (c *RobotCommand) Variant() CommandVariant {
	switch {
	case c == nil:
		return nil
	case c.MobilityCommand != nil:
		return c.MobilityCommand
	case c.SynchronizedCommand != nil:
		return c.SynchronizedCommand
	case c.FreezeCommand != nil:
		return c.FreezeCommand
	case c.SelfRightCommand != nil:
		return c.SelfRightCommand
	}
	return nil
}

// RetargetEndTimes dispatches to the populated variant.
func (c *RobotCommand) RetargetEndTimes(fn EndTimeFunc) {
	if v := c.Variant(); v != nil {
		v.RetargetEndTimes(fn)
	}
}

// RetargetEndTimes rewrites the velocity or trajectory end time.
func (m *MobilityCommand) RetargetEndTimes(fn EndTimeFunc) {
	if m == nil {
		return
	}
	if m.SE2VelocityRequest != nil && m.SE2VelocityRequest.EndTime != nil {
		m.SE2VelocityRequest.EndTime = fn(m.SE2VelocityRequest.EndTime)
	}
	if m.SE2TrajectoryRequest != nil && m.SE2TrajectoryRequest.EndTime != nil {
		m.SE2TrajectoryRequest.EndTime = fn(m.SE2TrajectoryRequest.EndTime)
	}
}

// RetargetEndTimes recurses into the mobility sub-command.
func (s *SynchronizedCommand) RetargetEndTimes(fn EndTimeFunc) {
	if s == nil {
		return
	}
	s.MobilityCommand.RetargetEndTimes(fn)
}

// RetargetEndTimes is a no-op; freeze carries no end time.
func (*FreezeCommand) RetargetEndTimes(EndTimeFunc) {}

// RetargetEndTimes is a no-op; self-right carries no end time.
func (*SelfRightCommand) RetargetEndTimes(EndTimeFunc) {}

// Clone returns a deep copy of c.
func (c *RobotCommand) Clone() *RobotCommand {
	if c == nil {
		return nil
	}
	out := &RobotCommand{
		MobilityCommand: c.MobilityCommand.Clone(),
	}
	if c.SynchronizedCommand != nil {
		out.SynchronizedCommand = &SynchronizedCommand{
			MobilityCommand: c.SynchronizedCommand.MobilityCommand.Clone(),
		}
	}
	if c.FreezeCommand != nil {
		out.FreezeCommand = &FreezeCommand{}
	}
	if c.SelfRightCommand != nil {
		out.SelfRightCommand = &SelfRightCommand{}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *MobilityCommand) Clone() *MobilityCommand {
	if m == nil {
		return nil
	}
	out := &MobilityCommand{}
	if v := m.SE2VelocityRequest; v != nil {
		cp := *v
		cp.EndTime = cloneTimestamp(v.EndTime)
		if v.Velocity != nil {
			vel := *v.Velocity
			cp.Velocity = &vel
		}
		out.SE2VelocityRequest = &cp
	}
	if t := m.SE2TrajectoryRequest; t != nil {
		cp := *t
		cp.EndTime = cloneTimestamp(t.EndTime)
		if t.GoalPose != nil {
			pose := *t.GoalPose
			cp.GoalPose = &pose
		}
		out.SE2TrajectoryRequest = &cp
	}
	if m.StandRequest != nil {
		out.StandRequest = &StandCommand{}
	}
	if m.StopRequest != nil {
		out.StopRequest = &StopCommand{}
	}
	return out
}

func cloneTimestamp(ts *timestamppb.Timestamp) *timestamppb.Timestamp {
	if ts == nil {
		return nil
	}
	return proto.Clone(ts).(*timestamppb.Timestamp)
}

// RobotCommandStatus is the application status of RobotCommand.
type RobotCommandStatus int32

const (
	RobotCommandStatusUnknown        RobotCommandStatus = 0
	RobotCommandStatusOK             RobotCommandStatus = 1
	RobotCommandStatusInvalidRequest RobotCommandStatus = 2
	RobotCommandStatusUnsupported    RobotCommandStatus = 3
	RobotCommandStatusNoTimesync     RobotCommandStatus = 4
	RobotCommandStatusExpired        RobotCommandStatus = 5
	RobotCommandStatusTooDistant     RobotCommandStatus = 6
	RobotCommandStatusNotPoweredOn   RobotCommandStatus = 7
	RobotCommandStatusBehaviorFault  RobotCommandStatus = 9
	RobotCommandStatusDocked         RobotCommandStatus = 10
	RobotCommandStatusUnknownFrame   RobotCommandStatus = 8
)

// RobotCommandRequest issues a command to the robot.
type RobotCommandRequest struct {
	RequestEnvelope
	Lease           *Lease        `json:"lease,omitempty"`
	Command         *RobotCommand `json:"command,omitempty"`
	ClockIdentifier string        `json:"clock_identifier,omitempty"`
}

// GetLease returns the lease carried by the request.
func (r *RobotCommandRequest) GetLease() *Lease { return r.Lease }

// SetLease replaces the lease carried by the request.
func (r *RobotCommandRequest) SetLease(l *Lease) { r.Lease = l }

// RobotCommandResponse acknowledges a command.
type RobotCommandResponse struct {
	ResponseEnvelope
	LeaseUseResult *LeaseUseResult    `json:"lease_use_result,omitempty"`
	Status         RobotCommandStatus `json:"status,omitempty"`
	Message        string             `json:"message,omitempty"`
	RobotCommandID uint32             `json:"robot_command_id,omitempty"`
}

// GetLeaseUseResults returns the single lease use result as a slice.
func (r *RobotCommandResponse) GetLeaseUseResults() []*LeaseUseResult {
	if r == nil || r.LeaseUseResult == nil {
		return nil
	}
	return []*LeaseUseResult{r.LeaseUseResult}
}
