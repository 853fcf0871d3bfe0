package robocore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pkt.systems/robocore/client"
	"pkt.systems/robocore/timesync"
)

const (
	// DefaultPort is the robot's gRPC port.
	DefaultPort = 443
	// DefaultClientName identifies SDK callers that do not set a name.
	DefaultClientName = "robocore"
	// DefaultEstopTimeout is the check-in timeout of new E-Stop endpoints.
	DefaultEstopTimeout = 9 * time.Second
	// DefaultConfigFileName is looked up in DefaultConfigDir.
	DefaultConfigFileName = "config.yaml"
)

// Config carries the settings shared by every robot an SDK creates.
type Config struct {
	// ClientName is stamped on every request header and lease.
	ClientName string `yaml:"client_name"`
	// Port is the robot's gRPC port.
	Port int `yaml:"port"`
	// RootCAFile is a PEM bundle of CAs robots are verified against. Empty
	// uses the system roots.
	RootCAFile string `yaml:"root_ca_file,omitempty"`
	// Insecure dials without TLS. Only simulators accept it.
	Insecure bool `yaml:"insecure,omitempty"`
	// RPCTimeout is the default per-call timeout.
	RPCTimeout time.Duration `yaml:"rpc_timeout"`
	// TimeSyncInterval is the time-sync cadence once sync is established.
	TimeSyncInterval time.Duration `yaml:"timesync_interval"`
	// EstopTimeout is the check-in timeout of endpoints created by the SDK.
	EstopTimeout time.Duration `yaml:"estop_timeout"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		ClientName:       DefaultClientName,
		Port:             DefaultPort,
		RPCTimeout:       client.DefaultTimeout,
		TimeSyncInterval: timesync.DefaultSyncInterval,
		EstopTimeout:     DefaultEstopTimeout,
	}
}

// Validate fills unset fields with defaults and rejects inconsistent
// settings.
func (c *Config) Validate() error {
	c.ClientName = strings.TrimSpace(c.ClientName)
	if c.ClientName == "" {
		c.ClientName = DefaultClientName
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.Insecure && strings.TrimSpace(c.RootCAFile) != "" {
		return fmt.Errorf("config: root-ca-file cannot be combined with insecure")
	}
	if c.RPCTimeout < 0 {
		return fmt.Errorf("config: rpc timeout must not be negative")
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = client.DefaultTimeout
	}
	if c.TimeSyncInterval <= 0 {
		c.TimeSyncInterval = timesync.DefaultSyncInterval
	}
	if c.EstopTimeout <= 0 {
		c.EstopTimeout = DefaultEstopTimeout
	}
	return nil
}

// Params returns the call parameters matching c.
func (c Config) Params() client.Params {
	return client.Params{Timeout: c.RPCTimeout}
}

// DefaultConfigDir returns $ROBOCORE_CONFIG_DIR, or $HOME/.robocore.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("ROBOCORE_CONFIG_DIR")); override != "" {
		return filepath.Abs(override)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".robocore"), nil
}
