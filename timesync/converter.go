package timesync

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"pkt.systems/robocore/api"
)

// Converter maps between local and robot time using a fixed clock skew.
type Converter struct {
	// Skew is robot time minus local time.
	Skew time.Duration
}

// RobotTime returns the robot instant matching local.
func (c Converter) RobotTime(local time.Time) time.Time {
	return local.Add(c.Skew)
}

// RobotTimestamp returns the wire form of RobotTime(local).
func (c Converter) RobotTimestamp(local time.Time) *timestamppb.Timestamp {
	return timestamppb.New(c.RobotTime(local))
}

// LocalTime returns the local instant matching robot.
func (c Converter) LocalTime(robot time.Time) time.Time {
	return robot.Add(-c.Skew)
}

// RobotTimestampFromLocalTimestamp converts a wire timestamp expressed in
// local time. A nil timestamp stays nil.
func (c Converter) RobotTimestampFromLocalTimestamp(local *timestamppb.Timestamp) *timestamppb.Timestamp {
	if local == nil {
		return nil
	}
	return c.RobotTimestamp(local.AsTime())
}

// LocalTimestampFromRobotTimestamp is the inverse of
// RobotTimestampFromLocalTimestamp.
func (c Converter) LocalTimestampFromRobotTimestamp(robot *timestamppb.Timestamp) *timestamppb.Timestamp {
	if robot == nil {
		return nil
	}
	return timestamppb.New(c.LocalTime(robot.AsTime()))
}

// EndTimeFunc returns the rewrite applied to command end times.
func (c Converter) EndTimeFunc() api.EndTimeFunc {
	return c.RobotTimestampFromLocalTimestamp
}
