package client

import (
	"encoding/json"

	"github.com/google/uuid"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/status"
)

// DefaultChunkSize is the payload size of each chunk produced by SplitChunks
// when no size is given.
const DefaultChunkSize = 4 << 20

// SplitChunks splits payload into frames of at most size bytes. Every frame
// carries the total size. An empty payload yields a single empty frame.
func SplitChunks(payload []byte, size int) []*api.DataChunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	total := uint64(len(payload))
	if len(payload) == 0 {
		return []*api.DataChunk{{TotalSize: 0}}
	}
	chunks := make([]*api.DataChunk, 0, (len(payload)+size-1)/size)
	for start := 0; start < len(payload); start += size {
		end := min(start+size, len(payload))
		chunks = append(chunks, &api.DataChunk{
			TotalSize: total,
			Data:      append([]byte(nil), payload[start:end]...),
		})
	}
	return chunks
}

// ChunkExtractor returns the correlation id and chunk carried by one stream
// message.
type ChunkExtractor[M any] func(M) (correlationID string, chunk *api.DataChunk)

// JoinChunks concatenates the chunks of msgs. All messages must carry the
// same correlation id; a mismatch fails with GenericSDKError and an empty
// message.
func JoinChunks[M any](msgs []M, extract ChunkExtractor[M]) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, status.New(status.GenericSDKError, "no chunks received")
	}
	var (
		correlation string
		total       uint64
		sized       bool
		buf         []byte
	)
	for i, msg := range msgs {
		id, chunk := extract(msg)
		if i == 0 {
			correlation = id
		} else if id != correlation {
			return nil, status.New(status.GenericSDKError, "")
		}
		if chunk == nil {
			continue
		}
		if !sized {
			sized = true
			total = chunk.TotalSize
			// TotalSize comes off the wire; bound the hint by what the
			// stream can carry.
			buf = make([]byte, 0, min(total, uint64(DefaultChunkSize)*uint64(len(msgs))))
		}
		buf = append(buf, chunk.Data...)
	}
	if uint64(len(buf)) != total {
		return nil, status.Newf(status.GenericSDKError, "reassembled %d bytes, expected %d", len(buf), total)
	}
	return buf, nil
}

// DecodeChunks joins msgs and decodes the payload into a T.
func DecodeChunks[T any, M any](msgs []M, extract ChunkExtractor[M]) (T, error) {
	var out T
	payload, err := JoinChunks(msgs, extract)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, status.Newf(status.GenericSDKError, "decode chunked payload: %v", err)
	}
	return out, nil
}

// ChunkRequests encodes v and splits it into request-stream messages sharing a
// fresh correlation id.
func ChunkRequests(v any, size int) ([]*api.ChunkedRequest, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, status.Newf(status.GenericSDKError, "encode chunked payload: %v", err)
	}
	id := uuid.NewString()
	chunks := SplitChunks(payload, size)
	out := make([]*api.ChunkedRequest, len(chunks))
	for i, chunk := range chunks {
		out[i] = &api.ChunkedRequest{CorrelationID: id, Chunk: chunk}
	}
	return out, nil
}

// ChunkResponses is the server-side counterpart of ChunkRequests.
func ChunkResponses(v any, size int) ([]*api.ChunkedResponse, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, status.Newf(status.GenericSDKError, "encode chunked payload: %v", err)
	}
	id := uuid.NewString()
	chunks := SplitChunks(payload, size)
	out := make([]*api.ChunkedResponse, len(chunks))
	for i, chunk := range chunks {
		out[i] = &api.ChunkedResponse{CorrelationID: id, Chunk: chunk}
	}
	return out, nil
}

// RequestChunk extracts the chunk of a request-stream message.
func RequestChunk(m *api.ChunkedRequest) (string, *api.DataChunk) {
	return m.CorrelationID, m.Chunk
}

// ResponseChunk extracts the chunk of a response-stream message.
func ResponseChunk(m *api.ChunkedResponse) (string, *api.DataChunk) {
	return m.CorrelationID, m.Chunk
}
