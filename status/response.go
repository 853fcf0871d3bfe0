package status

import "pkt.systems/robocore/api"

// Response categories for the status enums the core interprets.
var (
	CommonErrorCategory = NewResponseCategory("CommonError", map[int32]string{
		int32(api.CommonErrorUnspecified):          "CODE_UNSPECIFIED",
		int32(api.CommonErrorOK):                   "CODE_OK",
		int32(api.CommonErrorInternalServerError):  "CODE_INTERNAL_SERVER_ERROR",
		int32(api.CommonErrorInvalidRequest):       "CODE_INVALID_REQUEST",
		int32(api.CommonErrorIncompatibleSoftware): "CODE_INCOMPATIBLE_SOFTWARE",
		int32(api.CommonErrorServiceUnavailable):   "CODE_SERVICE_UNAVAILABLE",
		int32(api.CommonErrorNotFound):             "CODE_NOT_FOUND",
	}, int32(api.CommonErrorOK))

	LeaseUseResultCategory = NewResponseCategory("LeaseUseResult", map[int32]string{
		int32(api.LeaseUseStatusUnknown):            "STATUS_UNKNOWN",
		int32(api.LeaseUseStatusOK):                 "STATUS_OK",
		int32(api.LeaseUseStatusOlder):              "STATUS_OLDER",
		int32(api.LeaseUseStatusRevoked):            "STATUS_REVOKED",
		int32(api.LeaseUseStatusWrongEpoch):         "STATUS_WRONG_EPOCH",
		int32(api.LeaseUseStatusUnmanaged):          "STATUS_UNMANAGED",
		int32(api.LeaseUseStatusLaterLeaseAcquired): "STATUS_LATER_LEASE_ACQUIRED",
	}, int32(api.LeaseUseStatusOK))

	AcquireLeaseCategory = NewResponseCategory("AcquireLeaseResponse", map[int32]string{
		int32(api.AcquireLeaseStatusUnknown):                 "STATUS_UNKNOWN",
		int32(api.AcquireLeaseStatusOK):                      "STATUS_OK",
		int32(api.AcquireLeaseStatusResourceAlreadyClaimed):  "STATUS_RESOURCE_ALREADY_CLAIMED",
		int32(api.AcquireLeaseStatusInvalidResource):         "STATUS_INVALID_RESOURCE",
		int32(api.AcquireLeaseStatusNotAuthoritativeService): "STATUS_NOT_AUTHORITATIVE_SERVICE",
	}, int32(api.AcquireLeaseStatusOK))

	TakeLeaseCategory = NewResponseCategory("TakeLeaseResponse", map[int32]string{
		int32(api.TakeLeaseStatusUnknown):                 "STATUS_UNKNOWN",
		int32(api.TakeLeaseStatusOK):                      "STATUS_OK",
		int32(api.TakeLeaseStatusInvalidResource):         "STATUS_INVALID_RESOURCE",
		int32(api.TakeLeaseStatusNotAuthoritativeService): "STATUS_NOT_AUTHORITATIVE_SERVICE",
	}, int32(api.TakeLeaseStatusOK))

	ReturnLeaseCategory = NewResponseCategory("ReturnLeaseResponse", map[int32]string{
		int32(api.ReturnLeaseStatusUnknown):                 "STATUS_UNKNOWN",
		int32(api.ReturnLeaseStatusOK):                      "STATUS_OK",
		int32(api.ReturnLeaseStatusInvalidResource):         "STATUS_INVALID_RESOURCE",
		int32(api.ReturnLeaseStatusNotActiveLease):          "STATUS_NOT_ACTIVE_LEASE",
		int32(api.ReturnLeaseStatusNotAuthoritativeService): "STATUS_NOT_AUTHORITATIVE_SERVICE",
	}, int32(api.ReturnLeaseStatusOK))

	TimeSyncCategory = NewResponseCategory("TimeSyncState", map[int32]string{
		int32(api.TimeSyncStatusUnknown):           "STATUS_UNKNOWN",
		int32(api.TimeSyncStatusOK):                "STATUS_OK",
		int32(api.TimeSyncStatusMoreSamplesNeeded): "STATUS_MORE_SAMPLES_NEEDED",
		int32(api.TimeSyncStatusServiceNotReady):   "STATUS_SERVICE_NOT_READY",
	}, int32(api.TimeSyncStatusOK))

	EstopCheckInCategory = NewResponseCategory("EstopCheckInResponse", map[int32]string{
		int32(api.EstopCheckInStatusUnknown):                    "STATUS_UNKNOWN",
		int32(api.EstopCheckInStatusOK):                         "STATUS_OK",
		int32(api.EstopCheckInStatusEndpointUnknown):            "STATUS_ENDPOINT_UNKNOWN",
		int32(api.EstopCheckInStatusIncorrectChallengeResponse): "STATUS_INCORRECT_CHALLENGE_RESPONSE",
	}, int32(api.EstopCheckInStatusOK))

	EstopRegisterCategory = NewResponseCategory("RegisterEstopEndpointResponse", map[int32]string{
		int32(api.EstopRegisterStatusUnknown):          "STATUS_UNKNOWN",
		int32(api.EstopRegisterStatusSuccess):          "STATUS_SUCCESS",
		int32(api.EstopRegisterStatusEndpointMismatch): "STATUS_ENDPOINT_MISMATCH",
		int32(api.EstopRegisterStatusConfigMismatch):   "STATUS_CONFIG_MISMATCH",
		int32(api.EstopRegisterStatusInvalidEndpoint):  "STATUS_INVALID_ENDPOINT",
	}, int32(api.EstopRegisterStatusSuccess))

	SetEstopConfigCategory = NewResponseCategory("SetEstopConfigResponse", map[int32]string{
		int32(api.SetEstopConfigStatusUnknown):       "STATUS_UNKNOWN",
		int32(api.SetEstopConfigStatusSuccess):       "STATUS_SUCCESS",
		int32(api.SetEstopConfigStatusInvalidID):     "STATUS_INVALID_ID",
		int32(api.SetEstopConfigStatusMotorsEnabled): "STATUS_MOTORS_ENABLED",
	}, int32(api.SetEstopConfigStatusSuccess))

	DirectoryCategory = NewResponseCategory("GetServiceEntryResponse", map[int32]string{
		int32(api.GetServiceEntryStatusUnknown):     "STATUS_UNKNOWN",
		int32(api.GetServiceEntryStatusOK):          "STATUS_OK",
		int32(api.GetServiceEntryStatusNonexistent): "STATUS_NONEXISTENT_SERVICE",
	}, int32(api.GetServiceEntryStatusOK))

	AuthCategory = NewResponseCategory("GetAuthTokenResponse", map[int32]string{
		int32(api.GetAuthTokenStatusUnknown):           "STATUS_UNKNOWN",
		int32(api.GetAuthTokenStatusOK):                "STATUS_OK",
		int32(api.GetAuthTokenStatusInvalidLogin):      "STATUS_INVALID_LOGIN",
		int32(api.GetAuthTokenStatusInvalidToken):      "STATUS_INVALID_TOKEN",
		int32(api.GetAuthTokenStatusTemporarilyLocked): "STATUS_TEMPORARILY_LOCKED",
		int32(api.GetAuthTokenStatusInvalidAppToken):   "STATUS_INVALID_APP_TOKEN",
	}, int32(api.GetAuthTokenStatusOK))

	RobotCommandCategory = NewResponseCategory("RobotCommandResponse", map[int32]string{
		int32(api.RobotCommandStatusUnknown):        "STATUS_UNKNOWN",
		int32(api.RobotCommandStatusOK):             "STATUS_OK",
		int32(api.RobotCommandStatusInvalidRequest): "STATUS_INVALID_REQUEST",
		int32(api.RobotCommandStatusUnsupported):    "STATUS_UNSUPPORTED",
		int32(api.RobotCommandStatusNoTimesync):     "STATUS_NO_TIMESYNC",
		int32(api.RobotCommandStatusExpired):        "STATUS_EXPIRED",
		int32(api.RobotCommandStatusTooDistant):     "STATUS_TOO_DISTANT",
		int32(api.RobotCommandStatusNotPoweredOn):   "STATUS_NOT_POWERED_ON",
		int32(api.RobotCommandStatusUnknownFrame):   "STATUS_UNKNOWN_FRAME",
		int32(api.RobotCommandStatusBehaviorFault):  "STATUS_BEHAVIOR_FAULT",
		int32(api.RobotCommandStatusDocked):         "STATUS_DOCKED",
	}, int32(api.RobotCommandStatusOK))
)

// FromResponse returns a Status for value v of a response enum category.
// Success values produce OK.
func FromResponse(cat *Category, v int32, message string) Status {
	code := cat.Code(v)
	if code.IsSuccess() {
		return OK
	}
	if message == "" {
		message = code.String()
	}
	return New(code, message)
}
