package loggingutil

import (
	"bytes"
	"strings"
	"testing"

	"pkt.systems/pslog"
)

func TestSubsystemTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	base := pslog.NewStructured(&buf)
	Subsystem(base, ".lease", "", "keepalive.").Info("lease.keepalive.started")
	if !strings.Contains(buf.String(), "lease.keepalive") || !strings.Contains(buf.String(), "sys") {
		t.Fatalf("missing subsystem tag: %s", buf.String())
	}
}

func TestSubsystemWithoutLogger(t *testing.T) {
	l := Subsystem(nil, "sdk")
	if l == nil {
		t.Fatal("expected a logger")
	}
	l.Info("ignored")
	if EnsureLogger(nil) != NoopLogger() {
		t.Fatal("EnsureLogger(nil) should return the shared disabled logger")
	}
}

func TestJoinParts(t *testing.T) {
	if got := joinParts([]string{" client", "rpc "}); got != "client.rpc" {
		t.Fatalf("joinParts = %q", got)
	}
	if got := joinParts(nil); got != "" {
		t.Fatalf("joinParts(nil) = %q", got)
	}
}
