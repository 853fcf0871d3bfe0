// Package timesync estimates the offset between the local clock and the
// robot clock.
//
// An Endpoint performs single exchanges with the robot time-sync service and
// keeps the robot's cumulative estimate. A Keeper runs the endpoint in the
// background: it samples quickly until sync is established and then at a
// slow cadence. A Converter built from the latest estimate maps local
// instants to robot instants (robot = local + skew).
package timesync
