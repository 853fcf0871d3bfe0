package status

var sdkCategory = newCategory("SDKErrorCode", KindSDK, map[int32]string{
	0:   "Success",
	1:   "GenericSDKError",
	100: "ResourceNotInWallet",
	101: "ResourceNotOwned",
	102: "LeaseInvalid",
	103: "LeaseWalletGenericError",
	200: "DockingRetriesExceeded",
	201: "DockingCancelled",
	202: "DockingCommandFailed",
	300: "NonExistentServiceName",
	400: "IncorrectServiceType",
	401: "UnregisteredService",
	500: "RequestWriterFailed",
	501: "ResponseReaderFailed",
	502: "StreamingFailed",
	600: "TimeSyncNotEstablished",
	601: "TimeSyncClockChanged",
}, 0)

var rpcCategory = newCategory("RPCErrorCode", KindRPC, map[int32]string{
	0:  "Success",
	1:  "ClientCancelled",
	2:  "InvalidAppToken",
	3:  "InvalidClientCertificate",
	4:  "NonexistentAuthority",
	5:  "NotFound",
	6:  "PermissionDenied",
	7:  "ProxyConnection",
	8:  "ResponseTooLarge",
	9:  "ServiceUnavailable",
	10: "ServiceFailedDuringExecution",
	11: "TimedOut",
	12: "UnableToConnectToRobot",
	13: "Unauthenticated",
	14: "UnknownDnsName",
	15: "Unimplemented",
	16: "TransientFailure",
	17: "TooManyRequests",
	18: "RetryableUnavailable",
}, 0)

// Success is the code of a successful Status, the zero Code.
var Success = Code{}

// SDK codes.
var (
	GenericSDKError = sdkCategory.Code(1)

	ResourceNotInWallet     = sdkCategory.Code(100)
	ResourceNotOwned        = sdkCategory.Code(101)
	LeaseInvalid            = sdkCategory.Code(102)
	LeaseWalletGenericError = sdkCategory.Code(103)

	DockingRetriesExceeded = sdkCategory.Code(200)
	DockingCancelled       = sdkCategory.Code(201)
	DockingCommandFailed   = sdkCategory.Code(202)

	NonExistentServiceName = sdkCategory.Code(300)

	IncorrectServiceType = sdkCategory.Code(400)
	UnregisteredService  = sdkCategory.Code(401)

	RequestWriterFailed  = sdkCategory.Code(500)
	ResponseReaderFailed = sdkCategory.Code(501)
	StreamingFailed      = sdkCategory.Code(502)

	TimeSyncNotEstablished = sdkCategory.Code(600)
	TimeSyncClockChanged   = sdkCategory.Code(601)
)

// RPC codes.
var (
	RPCSuccess                   = rpcCategory.Code(0)
	ClientCancelled              = rpcCategory.Code(1)
	InvalidAppToken              = rpcCategory.Code(2)
	InvalidClientCertificate     = rpcCategory.Code(3)
	NonexistentAuthority         = rpcCategory.Code(4)
	NotFound                     = rpcCategory.Code(5)
	PermissionDenied             = rpcCategory.Code(6)
	ProxyConnection              = rpcCategory.Code(7)
	ResponseTooLarge             = rpcCategory.Code(8)
	ServiceUnavailable           = rpcCategory.Code(9)
	ServiceFailedDuringExecution = rpcCategory.Code(10)
	TimedOut                     = rpcCategory.Code(11)
	UnableToConnectToRobot       = rpcCategory.Code(12)
	Unauthenticated              = rpcCategory.Code(13)
	UnknownDNSName               = rpcCategory.Code(14)
	Unimplemented                = rpcCategory.Code(15)
	TransientFailure             = rpcCategory.Code(16)
	TooManyRequests              = rpcCategory.Code(17)
	RetryableUnavailable         = rpcCategory.Code(18)
)

var retryableRPC = map[Code]struct{}{
	ProxyConnection:              {},
	ResponseTooLarge:             {},
	ServiceUnavailable:           {},
	ServiceFailedDuringExecution: {},
	TimedOut:                     {},
	UnableToConnectToRobot:       {},
	TransientFailure:             {},
	TooManyRequests:              {},
	RetryableUnavailable:         {},
}

var persistentRPC = map[Code]struct{}{
	ClientCancelled:          {},
	InvalidAppToken:          {},
	InvalidClientCertificate: {},
	NonexistentAuthority:     {},
	PermissionDenied:         {},
	Unauthenticated:          {},
	UnknownDNSName:           {},
	Unimplemented:            {},
	NotFound:                 {},
}

// SDKCategory returns the category of SDK codes.
func SDKCategory() *Category { return sdkCategory }

// RPCCategory returns the category of RPC codes.
func RPCCategory() *Category { return rpcCategory }
