// Package loggingutil holds the logger plumbing shared by every package:
// a disabled fallback for callers that pass no logger and the subsystem tag
// that ties each log line to the component that wrote it.
package loggingutil

import (
	"io"
	"strings"
	"sync"

	"pkt.systems/pslog"
)

// SubsystemKey tags the component a log entry comes from.
const SubsystemKey = pslog.TrustedString("sys")

var (
	noOnce   sync.Once
	noLogger pslog.Logger
)

// NoopLogger returns a disabled logger that discards all entries.
func NoopLogger() pslog.Logger {
	noOnce.Do(func() {
		noLogger = pslog.NewWithOptions(io.Discard, pslog.Options{
			Mode:     pslog.ModeStructured,
			MinLevel: pslog.Disabled,
		})
	})
	return noLogger
}

// EnsureLogger returns l when non-nil, otherwise a disabled logger.
func EnsureLogger(l pslog.Logger) pslog.Logger {
	if l != nil {
		return l
	}
	return NoopLogger()
}

// Subsystem returns l (or a disabled logger) tagged with the dot-joined
// non-empty parts, e.g. Subsystem(l, "lease", "keepalive") tags
// "lease.keepalive".
func Subsystem(l pslog.Logger, parts ...string) pslog.Logger {
	l = EnsureLogger(l)
	name := joinParts(parts)
	if name == "" {
		return l
	}
	return l.With(SubsystemKey, name)
}

func joinParts(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, ". "); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
