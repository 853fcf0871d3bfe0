package api

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// RequestHeader is carried by every request.
type RequestHeader struct {
	// RequestTimestamp is the local wall time at which the request was composed.
	RequestTimestamp *timestamppb.Timestamp `json:"request_timestamp,omitempty"`
	// ClientName identifies the caller to the robot.
	ClientName string `json:"client_name,omitempty"`
	// DisableRPCLogging asks the robot not to log this request.
	DisableRPCLogging bool `json:"disable_rpc_logging,omitempty"`
}

// CommonErrorCode is the error code carried in every response header.
type CommonErrorCode int32

const (
	CommonErrorUnspecified          CommonErrorCode = 0
	CommonErrorOK                   CommonErrorCode = 1
	CommonErrorInternalServerError  CommonErrorCode = 2
	CommonErrorInvalidRequest       CommonErrorCode = 3
	CommonErrorIncompatibleSoftware CommonErrorCode = 4
	CommonErrorServiceUnavailable   CommonErrorCode = 5
	CommonErrorNotFound             CommonErrorCode = 6
)

// CommonError is the server-reported error sub-message of a response header.
type CommonError struct {
	Code    CommonErrorCode `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ResponseHeader is carried by every response.
type ResponseHeader struct {
	// RequestHeader echoes the header of the request being answered.
	RequestHeader *RequestHeader `json:"request_header,omitempty"`
	// RequestReceivedTimestamp is the robot time at which the request arrived.
	RequestReceivedTimestamp *timestamppb.Timestamp `json:"request_received_timestamp,omitempty"`
	// ResponseTimestamp is the robot time at which the response was sent.
	ResponseTimestamp *timestamppb.Timestamp `json:"response_timestamp,omitempty"`
	// Error is the common error; a nil error or code OK means success.
	Error *CommonError `json:"error,omitempty"`
}

// Request is implemented by every request message.
type Request interface {
	GetHeader() *RequestHeader
	SetHeader(*RequestHeader)
}

// Response is implemented by every response message.
type Response interface {
	GetHeader() *ResponseHeader
}

// RequestEnvelope is embedded by request messages to satisfy Request.
type RequestEnvelope struct {
	Header *RequestHeader `json:"header,omitempty"`
}

// GetHeader returns the request header, which may be nil.
func (e *RequestEnvelope) GetHeader() *RequestHeader {
	if e == nil {
		return nil
	}
	return e.Header
}

// SetHeader replaces the request header.
func (e *RequestEnvelope) SetHeader(h *RequestHeader) {
	e.Header = h
}

// ResponseEnvelope is embedded by response messages to satisfy Response.
type ResponseEnvelope struct {
	Header *ResponseHeader `json:"header,omitempty"`
}

// GetHeader returns the response header, which may be nil.
func (e *ResponseEnvelope) GetHeader() *ResponseHeader {
	if e == nil {
		return nil
	}
	return e.Header
}
