package api

import "google.golang.org/protobuf/types/known/durationpb"

// EstopStopLevel is the severity of an emergency stop.
type EstopStopLevel int32

const (
	EstopStopLevelUnknown       EstopStopLevel = 0
	EstopStopLevelCut           EstopStopLevel = 1
	EstopStopLevelSettleThenCut EstopStopLevel = 3
	EstopStopLevelNone          EstopStopLevel = 4
)

// EstopEndpoint is the wire form of an E-Stop endpoint.
type EstopEndpoint struct {
	Role            string               `json:"role,omitempty"`
	Name            string               `json:"name,omitempty"`
	UniqueID        string               `json:"unique_id,omitempty"`
	Timeout         *durationpb.Duration `json:"timeout,omitempty"`
	CutPowerTimeout *durationpb.Duration `json:"cut_power_timeout,omitempty"`
}

// EstopEndpointWithStatus pairs an endpoint with its last reported level.
type EstopEndpointWithStatus struct {
	Endpoint               *EstopEndpoint       `json:"endpoint,omitempty"`
	StopLevel              EstopStopLevel       `json:"stop_level,omitempty"`
	TimeSinceValidResponse *durationpb.Duration `json:"time_since_valid_response,omitempty"`
}

// EstopConfig is the set of endpoints the robot expects to hear from.
type EstopConfig struct {
	Endpoints []*EstopEndpoint `json:"endpoints,omitempty"`
	UniqueID  string           `json:"unique_id,omitempty"`
}

// GetUniqueID returns the configuration id, "" for a nil config.
func (c *EstopConfig) GetUniqueID() string {
	if c == nil {
		return ""
	}
	return c.UniqueID
}

// EstopSystemStatus is the robot-side view of all endpoints.
type EstopSystemStatus struct {
	Endpoints        []*EstopEndpointWithStatus `json:"endpoints,omitempty"`
	StopLevel        EstopStopLevel             `json:"stop_level,omitempty"`
	StopLevelDetails string                     `json:"stop_level_details,omitempty"`
}

// EstopCheckInStatus is the application status of EstopCheckIn.
type EstopCheckInStatus int32

const (
	EstopCheckInStatusUnknown                    EstopCheckInStatus = 0
	EstopCheckInStatusOK                         EstopCheckInStatus = 1
	EstopCheckInStatusEndpointUnknown            EstopCheckInStatus = 2
	EstopCheckInStatusIncorrectChallengeResponse EstopCheckInStatus = 5
)

// EstopCheckInRequest is one heartbeat of an endpoint.
type EstopCheckInRequest struct {
	RequestEnvelope
	Endpoint  *EstopEndpoint `json:"endpoint,omitempty"`
	Challenge uint64         `json:"challenge,omitempty"`
	Response  uint64         `json:"response,omitempty"`
	StopLevel EstopStopLevel `json:"stop_level,omitempty"`
}

// EstopCheckInResponse carries the next challenge.
type EstopCheckInResponse struct {
	ResponseEnvelope
	Request   *EstopCheckInRequest `json:"request,omitempty"`
	Challenge uint64               `json:"challenge,omitempty"`
	Status    EstopCheckInStatus   `json:"status,omitempty"`
}

// EstopRegisterStatus is the application status of RegisterEstopEndpoint.
type EstopRegisterStatus int32

const (
	EstopRegisterStatusUnknown          EstopRegisterStatus = 0
	EstopRegisterStatusSuccess          EstopRegisterStatus = 1
	EstopRegisterStatusEndpointMismatch EstopRegisterStatus = 2
	EstopRegisterStatusConfigMismatch   EstopRegisterStatus = 3
	EstopRegisterStatusInvalidEndpoint  EstopRegisterStatus = 4
)

// RegisterEstopEndpointRequest replaces TargetEndpoint with NewEndpoint in
// the configuration identified by TargetConfigID.
type RegisterEstopEndpointRequest struct {
	RequestEnvelope
	TargetEndpoint *EstopEndpoint `json:"target_endpoint,omitempty"`
	TargetConfigID string         `json:"target_config_id,omitempty"`
	NewEndpoint    *EstopEndpoint `json:"new_endpoint,omitempty"`
}

// RegisterEstopEndpointResponse carries the registered endpoint.
type RegisterEstopEndpointResponse struct {
	ResponseEnvelope
	Request     *RegisterEstopEndpointRequest `json:"request,omitempty"`
	NewEndpoint *EstopEndpoint                `json:"new_endpoint,omitempty"`
	Status      EstopRegisterStatus           `json:"status,omitempty"`
}

// DeregisterEstopEndpointRequest removes an endpoint from a configuration.
type DeregisterEstopEndpointRequest struct {
	RequestEnvelope
	TargetEndpoint *EstopEndpoint `json:"target_endpoint,omitempty"`
	TargetConfigID string         `json:"target_config_id,omitempty"`
}

// DeregisterEstopEndpointResponse acknowledges deregistration.
type DeregisterEstopEndpointResponse struct {
	ResponseEnvelope
	Status EstopRegisterStatus `json:"status,omitempty"`
}

// GetEstopConfigRequest asks for a configuration, or the active one when
// TargetConfigID is empty.
type GetEstopConfigRequest struct {
	RequestEnvelope
	TargetConfigID string `json:"target_config_id,omitempty"`
}

// GetEstopConfigResponse carries a configuration.
type GetEstopConfigResponse struct {
	ResponseEnvelope
	ActiveConfig *EstopConfig `json:"active_config,omitempty"`
}

// SetEstopConfigStatus is the application status of SetEstopConfig.
type SetEstopConfigStatus int32

const (
	SetEstopConfigStatusUnknown       SetEstopConfigStatus = 0
	SetEstopConfigStatusSuccess       SetEstopConfigStatus = 1
	SetEstopConfigStatusInvalidID     SetEstopConfigStatus = 2
	SetEstopConfigStatusMotorsEnabled SetEstopConfigStatus = 4
)

// SetEstopConfigRequest replaces the active configuration.
type SetEstopConfigRequest struct {
	RequestEnvelope
	Config         *EstopConfig `json:"config,omitempty"`
	TargetConfigID string       `json:"target_config_id,omitempty"`
}

// SetEstopConfigResponse carries the new active configuration.
type SetEstopConfigResponse struct {
	ResponseEnvelope
	ActiveConfig *EstopConfig         `json:"active_config,omitempty"`
	Status       SetEstopConfigStatus `json:"status,omitempty"`
}

// GetEstopSystemStatusRequest asks for the system status.
type GetEstopSystemStatusRequest struct {
	RequestEnvelope
}

// GetEstopSystemStatusResponse carries the system status.
type GetEstopSystemStatusResponse struct {
	ResponseEnvelope
	Status *EstopSystemStatus `json:"status,omitempty"`
}
