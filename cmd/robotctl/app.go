package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pkt.systems/pslog"

	"pkt.systems/robocore"
	"pkt.systems/robocore/internal/loggingutil"
)

const envPrefix = "ROBOCORE"

func submain(ctx context.Context) int {
	baseLogger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix("ROBOCORE_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "robotctl")
	cmd := newRootCommand(baseLogger)
	ctx = withSignalCancel(ctx)
	if _, err := cmd.ExecuteContextC(ctx); err != nil {
		if err != context.Canceled {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}
		return 1
	}
	return 0
}

// app carries what every subcommand shares: settings, logger and the
// telemetry exporters started before the command runs.
type app struct {
	v         *viper.Viper
	logger    pslog.Logger
	telemetry *robocore.Telemetry
}

func newRootCommand(baseLogger pslog.Logger) *cobra.Command {
	a := &app{v: viper.New(), logger: baseLogger}

	cmd := &cobra.Command{
		Use:           "robotctl",
		Short:         "robotctl talks to a robot: time sync, leases and E-Stop",
		SilenceErrors: true,
		Example: `
  # Estimate the clock skew of a robot
  BOSDYN_CLIENT_USERNAME=user BOSDYN_CLIENT_PASSWORD=secret robotctl -H 192.168.80.3 timesync

  # Acquire the body lease and hold it for a minute
  robotctl -H 192.168.80.3 lease acquire --hold 1m

  # Run an E-Stop endpoint that allows motion for 5 minutes
  robotctl -H 192.168.80.3 estop --level none --duration 5m
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			path, err := a.loadConfigFile()
			if err != nil {
				return err
			}
			if lvl := strings.TrimSpace(a.v.GetString("log-level")); lvl != "" {
				if level, ok := pslog.ParseLevel(lvl); ok {
					a.logger = a.logger.LogLevel(level)
				} else {
					return fmt.Errorf("unknown log level %q", lvl)
				}
			}
			if path != "" {
				loggingutil.Subsystem(a.logger, "cli.root").Debug("cli.config.loaded", "path", path)
			}
			a.telemetry, err = robocore.SetupTelemetry(cmd.Context(), robocore.TelemetryConfig{
				OTLPEndpoint:   a.v.GetString("otlp-endpoint"),
				MetricsListen:  a.v.GetString("metrics-listen"),
				RuntimeMetrics: a.v.GetBool("runtime-metrics"),
			}, a.logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.telemetry.Shutdown(ctx)
		},
	}

	defaults := robocore.DefaultConfig()
	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to YAML config file (defaults to $HOME/.robocore/"+robocore.DefaultConfigFileName+")")
	flags.StringP("hostname", "H", "", "robot host name or IP, optionally with :port")
	flags.String("client-name", "", "client name stamped on requests and leases (default robotctl-<random>)")
	flags.Int("port", defaults.Port, "robot gRPC port when the hostname carries none")
	flags.String("root-ca-file", "", "PEM bundle of CAs the robot certificate is verified against")
	flags.Bool("insecure", false, "dial without TLS (simulators only)")
	flags.Duration("rpc-timeout", defaults.RPCTimeout, "per-call timeout")
	flags.Duration("timesync-interval", defaults.TimeSyncInterval, "time-sync cadence once sync is established")
	flags.Duration("estop-timeout", defaults.EstopTimeout, "check-in timeout of E-Stop endpoints")
	flags.String("username", "", "robot user (default $"+robocore.EnvUsername+")")
	flags.String("password", "", "robot password (default $"+robocore.EnvPassword+")")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("metrics-listen", "", "serve Prometheus metrics on this address (empty disables)")
	flags.Bool("runtime-metrics", false, "include Go runtime metrics on the metrics endpoint")
	flags.String("otlp-endpoint", "", "OTLP collector endpoint for traces (e.g. grpc://localhost:4317)")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(newTimeSyncCommand(a))
	cmd.AddCommand(newLeaseCommand(a))
	cmd.AddCommand(newEstopCommand(a))
	cmd.AddCommand(newConfigCommand(a))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func (a *app) loadConfigFile() (string, error) {
	cfgPath := strings.TrimSpace(a.v.GetString("config"))
	explicit := cfgPath != ""
	if cfgPath == "" {
		dir, err := robocore.DefaultConfigDir()
		if err != nil {
			return "", nil
		}
		cfgPath = filepath.Join(dir, robocore.DefaultConfigFileName)
	}
	expanded, err := expandPath(cfgPath)
	if err != nil {
		return "", fmt.Errorf("expand config path %q: %w", cfgPath, err)
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return "", nil
		}
		return "", fmt.Errorf("config file %q: %w", expanded, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config file %q is a directory", expanded)
	}
	a.v.SetConfigFile(expanded)
	if err := a.v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", expanded, err)
	}
	return expanded, nil
}

// config assembles the SDK configuration from flags, environment and the
// config file, in that order of precedence. File keys use the YAML names of
// robocore.Config.
func (a *app) config() (robocore.Config, error) {
	pick := func(flag, key string) string {
		if a.v.IsSet(flag) {
			return flag
		}
		return key
	}
	cfg := robocore.Config{
		ClientName:       a.v.GetString(pick("client-name", "client_name")),
		Port:             a.v.GetInt("port"),
		RootCAFile:       a.v.GetString(pick("root-ca-file", "root_ca_file")),
		Insecure:         a.v.GetBool("insecure"),
		RPCTimeout:       a.v.GetDuration(pick("rpc-timeout", "rpc_timeout")),
		TimeSyncInterval: a.v.GetDuration(pick("timesync-interval", "timesync_interval")),
		EstopTimeout:     a.v.GetDuration(pick("estop-timeout", "estop_timeout")),
	}
	if strings.TrimSpace(cfg.ClientName) == "" {
		cfg.ClientName = "robotctl-" + xid.New().String()
	}
	if cfg.RootCAFile != "" {
		expanded, err := expandPath(cfg.RootCAFile)
		if err != nil {
			return robocore.Config{}, err
		}
		cfg.RootCAFile = expanded
	}
	if err := cfg.Validate(); err != nil {
		return robocore.Config{}, err
	}
	return cfg, nil
}

// connect creates and authenticates a robot. The caller closes it.
func (a *app) connect(ctx context.Context) (*robocore.Robot, error) {
	host := strings.TrimSpace(a.v.GetString("hostname"))
	if host == "" {
		return nil, fmt.Errorf("--hostname is required")
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	sdk, err := robocore.NewSDK(cfg, robocore.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	robot, err := sdk.CreateRobot(host)
	if err != nil {
		return nil, err
	}
	user, pass := a.v.GetString("username"), a.v.GetString("password")
	if user != "" && pass != "" {
		err = robot.Authenticate(ctx, user, pass)
	} else {
		err = robot.AuthenticateFromEnv(ctx)
	}
	if err != nil {
		_ = robot.Close()
		return nil, err
	}
	return robot, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if len(p) == 1 {
			p = home
		} else if p[1] == '/' || p[1] == '\\' {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Abs(p)
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx
}
