package client_test

import (
	"bytes"
	"testing"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/client"
	"pkt.systems/robocore/status"
)

func TestSplitAndJoinChunks(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("graph-"), 100)
	chunks := client.SplitChunks(payload, 64)
	if want := (len(payload) + 63) / 64; len(chunks) != want {
		t.Fatalf("got %d chunks, want %d", len(chunks), want)
	}
	msgs := make([]*api.ChunkedResponse, len(chunks))
	for i, c := range chunks {
		if c.TotalSize != uint64(len(payload)) {
			t.Fatalf("chunk %d total size %d", i, c.TotalSize)
		}
		msgs[i] = &api.ChunkedResponse{CorrelationID: "c1", Chunk: c}
	}
	joined, err := client.JoinChunks(msgs, client.ResponseChunk)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !bytes.Equal(joined, payload) {
		t.Fatal("reassembled payload differs")
	}
}

func TestJoinChunksRejectsMixedCorrelation(t *testing.T) {
	t.Parallel()

	msgs := []*api.ChunkedResponse{
		{CorrelationID: "a", Chunk: &api.DataChunk{TotalSize: 2, Data: []byte("x")}},
		{CorrelationID: "b", Chunk: &api.DataChunk{TotalSize: 2, Data: []byte("y")}},
	}
	_, err := client.JoinChunks(msgs, client.ResponseChunk)
	st := status.FromError(err)
	if st.Code() != status.GenericSDKError {
		t.Fatalf("code = %v, want GenericSDKError", st.Code())
	}
	if st.Message() != "" {
		t.Fatalf("message = %q, want empty", st.Message())
	}
}

func TestJoinChunksRejectsShortPayload(t *testing.T) {
	t.Parallel()

	msgs := []*api.ChunkedResponse{{CorrelationID: "a", Chunk: &api.DataChunk{TotalSize: 10, Data: []byte("abc")}}}
	if _, err := client.JoinChunks(msgs, client.ResponseChunk); !status.Is(err, status.GenericSDKError) {
		t.Fatalf("expected GenericSDKError, got %v", err)
	}
}

func TestJoinChunksRejectsOversizedTotal(t *testing.T) {
	t.Parallel()

	msgs := []*api.ChunkedResponse{{CorrelationID: "a", Chunk: &api.DataChunk{TotalSize: 1 << 62, Data: []byte("x")}}}
	if _, err := client.JoinChunks(msgs, client.ResponseChunk); !status.Is(err, status.GenericSDKError) {
		t.Fatalf("expected GenericSDKError, got %v", err)
	}
	if _, err := client.DecodeChunks[map[string]string](msgs, client.ResponseChunk); !status.Is(err, status.GenericSDKError) {
		t.Fatalf("decode: expected GenericSDKError, got %v", err)
	}
}

func TestJoinChunksSkipsLeadingEmptyMessage(t *testing.T) {
	t.Parallel()

	msgs := []*api.ChunkedResponse{
		{CorrelationID: "a"},
		{CorrelationID: "a", Chunk: &api.DataChunk{TotalSize: 6, Data: []byte("abc")}},
		{CorrelationID: "a", Chunk: &api.DataChunk{TotalSize: 6, Data: []byte("def")}},
	}
	joined, err := client.JoinChunks(msgs, client.ResponseChunk)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if string(joined) != "abcdef" {
		t.Fatalf("joined = %q", joined)
	}
}

func TestChunkRequestsRoundTrip(t *testing.T) {
	t.Parallel()

	type graph struct {
		Waypoints []string `json:"waypoints"`
	}
	in := graph{Waypoints: []string{"a", "b", "c"}}
	reqs, err := client.ChunkRequests(in, 8)
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if len(reqs) < 2 {
		t.Fatalf("expected several chunks, got %d", len(reqs))
	}
	for _, r := range reqs {
		if r.CorrelationID != reqs[0].CorrelationID || r.CorrelationID == "" {
			t.Fatalf("correlation ids differ: %q vs %q", r.CorrelationID, reqs[0].CorrelationID)
		}
	}
	out, err := client.DecodeChunks[graph](reqs, client.RequestChunk)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Waypoints) != 3 || out.Waypoints[2] != "c" {
		t.Fatalf("unexpected decode %+v", out)
	}
}

func TestSplitEmptyPayload(t *testing.T) {
	t.Parallel()

	chunks := client.SplitChunks(nil, 0)
	if len(chunks) != 1 || chunks[0].TotalSize != 0 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
}
