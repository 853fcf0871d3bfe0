package api

// GetAuthTokenStatus is the application status of GetAuthToken.
type GetAuthTokenStatus int32

const (
	GetAuthTokenStatusUnknown           GetAuthTokenStatus = 0
	GetAuthTokenStatusOK                GetAuthTokenStatus = 1
	GetAuthTokenStatusInvalidLogin      GetAuthTokenStatus = 2
	GetAuthTokenStatusInvalidToken      GetAuthTokenStatus = 3
	GetAuthTokenStatusTemporarilyLocked GetAuthTokenStatus = 4
	GetAuthTokenStatusInvalidAppToken   GetAuthTokenStatus = 5
)

// GetAuthTokenRequest exchanges credentials (or an existing token) for a
// bearer token.
type GetAuthTokenRequest struct {
	RequestEnvelope
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

// GetAuthTokenResponse carries the issued token.
type GetAuthTokenResponse struct {
	ResponseEnvelope
	Status GetAuthTokenStatus `json:"status,omitempty"`
	Token  string             `json:"token,omitempty"`
}
