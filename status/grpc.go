package status

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// TransportStatus is the trailer-style status of a completed call.
type TransportStatus struct {
	Code    codes.Code
	Message string
	// Detail is free-form trailing detail; proxies put the HTTP status there.
	Detail string
}

type phraseRule struct {
	code    Code
	phrases []string
	message string
}

// Best-effort heuristics over transport messages, evaluated in order.
var messageRules = []phraseRule{
	{NonexistentAuthority, []string{"Nonexistent authority", "nonexistent authority", "unknown :authority"},
		"The requested authority does not exist on the robot."},
	{ProxyConnection, []string{"proxy", "Proxy"},
		"The proxy between client and robot failed to connect."},
	{ServiceFailedDuringExecution, []string{"Exception calling application", "Exception iterating", "panic in handler"},
		"The service failed while executing the request."},
	{InvalidClientCertificate, []string{"certificate", "Handshake failed", "handshake failed"},
		"The TLS handshake failed; check the root certificate."},
	{UnknownDNSName, []string{"Name resolution failure", "DNS resolution failed", "no such host"},
		"The robot host name could not be resolved."},
	{TransientFailure, []string{"TRANSIENT_FAILURE", "transient failure"},
		"The connection to the robot is in transient failure."},
	{UnableToConnectToRobot, []string{"failed to connect to all addresses", "Connect Failed", "connection refused", "connection error"},
		"The client could not connect to the robot."},
}

type cancelRule struct {
	detail  string
	code    Code
	message string
}

var cancelledDetailRules = []cancelRule{
	{"401", Unauthenticated, "The request could not be authenticated."},
	{"403", InvalidAppToken, "The application token is invalid."},
	{"404", NotFound, "The requested service was not found."},
	{"429", TooManyRequests, "The server is not ready to handle the request due to rate limiting."},
	{"502", ServiceUnavailable, "The service is unavailable."},
	{"504", TimedOut, "The service took too long to respond."},
}

// FromTransport maps a transport status onto an RPC code and a human
// readable cause. Substring matching on messages is a heuristic; when nothing
// matches, the original code and message are preserved in the result.
func FromTransport(ts TransportStatus) Status {
	switch ts.Code {
	case codes.OK:
		return OK
	case codes.Canceled:
		for _, rule := range cancelledDetailRules {
			if strings.Contains(ts.Detail, rule.detail) {
				return New(rule.code, rule.message)
			}
		}
		return New(ClientCancelled, "The call was cancelled by the client.")
	case codes.DeadlineExceeded:
		return New(TimedOut, "The RPC did not complete before its deadline.")
	case codes.Unimplemented:
		return New(Unimplemented, "The robot does not implement this RPC.")
	case codes.PermissionDenied:
		return New(PermissionDenied, "The caller is not permitted to make this RPC.")
	case codes.ResourceExhausted:
		if strings.Contains(ts.Message, "Received message larger than max") {
			return New(ResponseTooLarge, "The response exceeded the maximum message size.")
		}
	case codes.Unauthenticated:
		return New(Unauthenticated, "The request could not be authenticated.")
	}
	if ts.Message != "" {
		for _, rule := range messageRules {
			for _, phrase := range rule.phrases {
				if strings.Contains(ts.Message, phrase) {
					return New(rule.code, rule.message)
				}
			}
		}
	}
	if ts.Code == codes.Unavailable {
		switch {
		case strings.Contains(ts.Message, "Socket closed"), strings.Contains(ts.Message, "Connection reset by peer"):
			return New(RetryableUnavailable, "The connection was reset; retry the call.")
		case strings.Contains(ts.Detail, "502"):
			return New(ServiceUnavailable, "The service is unavailable.")
		case strings.Contains(ts.Detail, "429"):
			return New(TooManyRequests, "The server is not ready to handle the request due to rate limiting.")
		default:
			return New(UnableToConnectToRobot, "The client could not connect to the robot.")
		}
	}
	return New(Unimplemented, fmt.Sprintf("Code: %d (%s) Message: %s", int(ts.Code), ts.Code.String(), ts.Message))
}

// TransportStatusFromError extracts the transport status from a gRPC error.
// DebugInfo and ErrorInfo details are flattened into Detail.
func TransportStatusFromError(err error) (TransportStatus, bool) {
	if err == nil {
		return TransportStatus{Code: codes.OK}, true
	}
	st, ok := grpcstatus.FromError(err)
	if !ok {
		return TransportStatus{}, false
	}
	ts := TransportStatus{Code: st.Code(), Message: st.Message()}
	var parts []string
	for _, d := range st.Details() {
		switch detail := d.(type) {
		case *errdetails.DebugInfo:
			if detail.GetDetail() != "" {
				parts = append(parts, detail.GetDetail())
			}
		case *errdetails.ErrorInfo:
			if detail.GetReason() != "" {
				parts = append(parts, detail.GetReason())
			}
			for k, v := range detail.GetMetadata() {
				parts = append(parts, k+"="+v)
			}
		}
	}
	ts.Detail = strings.Join(parts, "; ")
	return ts, true
}

// FromGRPCError maps an error returned by a gRPC call. Errors that do not
// carry a gRPC status become GenericSDKError.
func FromGRPCError(err error) Status {
	if err == nil {
		return OK
	}
	if st, ok := fromGRPCError(err); ok {
		return st
	}
	return New(GenericSDKError, err.Error())
}

func fromGRPCError(err error) (Status, bool) {
	var grpcErr interface{ GRPCStatus() *grpcstatus.Status }
	if !errors.As(err, &grpcErr) {
		return Status{}, false
	}
	ts, ok := TransportStatusFromError(err)
	if !ok {
		return Status{}, false
	}
	return FromTransport(ts), true
}
