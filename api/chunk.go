package api

// DataChunk is one frame of a message split across a stream.
type DataChunk struct {
	TotalSize uint64 `json:"total_size,omitempty"`
	Data      []byte `json:"data,omitempty"`
}

// ChunkedRequest is one element of a request stream. Every chunk of one
// message carries the same CorrelationID.
type ChunkedRequest struct {
	RequestEnvelope
	CorrelationID string     `json:"correlation_id,omitempty"`
	Chunk         *DataChunk `json:"chunk,omitempty"`
}

// ChunkedResponse is one element of a response stream.
type ChunkedResponse struct {
	ResponseEnvelope
	CorrelationID string     `json:"correlation_id,omitempty"`
	Chunk         *DataChunk `json:"chunk,omitempty"`
}

// UploadResponse acknowledges a request stream.
type UploadResponse struct {
	ResponseEnvelope
	CorrelationID string `json:"correlation_id,omitempty"`
	BytesReceived uint64 `json:"bytes_received,omitempty"`
}

// DownloadRequest opens a response stream for the named object.
type DownloadRequest struct {
	RequestEnvelope
	Name string `json:"name,omitempty"`
}
