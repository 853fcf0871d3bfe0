package api

import (
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TimeSyncRoundTrip records the four timestamps of one clock exchange.
type TimeSyncRoundTrip struct {
	ClientTx *timestamppb.Timestamp `json:"client_tx,omitempty"`
	ServerRx *timestamppb.Timestamp `json:"server_rx,omitempty"`
	ServerTx *timestamppb.Timestamp `json:"server_tx,omitempty"`
	ClientRx *timestamppb.Timestamp `json:"client_rx,omitempty"`
}

// TimeSyncEstimate is an estimate of round trip time and clock skew.
type TimeSyncEstimate struct {
	RoundTripTime *durationpb.Duration `json:"round_trip_time,omitempty"`
	// ClockSkew is robot time minus local time.
	ClockSkew *durationpb.Duration `json:"clock_skew,omitempty"`
}

// TimeSyncStatus describes how far the robot got in estimating the clock skew.
type TimeSyncStatus int32

const (
	TimeSyncStatusUnknown           TimeSyncStatus = 0
	TimeSyncStatusOK                TimeSyncStatus = 1
	TimeSyncStatusMoreSamplesNeeded TimeSyncStatus = 2
	TimeSyncStatusServiceNotReady   TimeSyncStatus = 3
)

// TimeSyncState is the cumulative estimate kept by the robot.
type TimeSyncState struct {
	BestEstimate    *TimeSyncEstimate      `json:"best_estimate,omitempty"`
	Status          TimeSyncStatus         `json:"status,omitempty"`
	MeasurementTime *timestamppb.Timestamp `json:"measurement_time,omitempty"`
}

// TimeSyncUpdateRequest reports the previous exchange and requests a new estimate.
type TimeSyncUpdateRequest struct {
	RequestEnvelope
	PreviousRoundTrip *TimeSyncRoundTrip `json:"previous_round_trip,omitempty"`
	ClockIdentifier   string             `json:"clock_identifier,omitempty"`
}

// TimeSyncUpdateResponse carries the robot's current estimate.
type TimeSyncUpdateResponse struct {
	ResponseEnvelope
	PreviousEstimate *TimeSyncEstimate `json:"previous_estimate,omitempty"`
	State            *TimeSyncState    `json:"state,omitempty"`
	ClockIdentifier  string            `json:"clock_identifier,omitempty"`
}
