// Package version reports which build of the SDK is running. The value ends
// up in the gRPC user agent, so robot-side logs can tell client builds apart.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	defaultModule = "pkt.systems/robocore"
	unknown       = "v0.0.0-unknown"
)

// buildVersion is set with -ldflags "-X pkt.systems/robocore/internal/version.buildVersion=v1.2.3".
var buildVersion = ""

// Info describes the running build.
type Info struct {
	Module    string
	Version   string
	Revision  string
	BuildTime time.Time
	Modified  bool
	GoVersion string
}

// Read collects Info from the linker flag and the embedded build info.
func Read() Info {
	info := Info{Module: defaultModule, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if ok {
		if p := strings.TrimSpace(bi.Main.Path); p != "" {
			info.Module = p
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Revision = s.Value
			case "vcs.time":
				info.BuildTime, _ = time.Parse(time.RFC3339, s.Value)
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	switch {
	case strings.TrimSpace(buildVersion) != "":
		info.Version = strings.TrimSpace(buildVersion)
	case ok && bi.Main.Version != "" && bi.Main.Version != "(devel)":
		info.Version = bi.Main.Version
	default:
		info.Version = info.pseudo()
	}
	return info
}

// pseudo builds a Go-style pseudo version from VCS stamps.
func (i Info) pseudo() string {
	if i.Revision == "" || i.BuildTime.IsZero() {
		return unknown
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "v0.0.0-" + i.BuildTime.UTC().Format("20060102150405") + "-" + rev
	if i.Modified {
		v += "+dirty"
	}
	return v
}

// Current returns the best available version string.
func Current() string { return Read().Version }

// Module returns the main module path.
func Module() string { return Read().Module }

// UserAgent is the gRPC user agent of SDK connections.
func UserAgent() string {
	return "robocore/" + Current()
}
