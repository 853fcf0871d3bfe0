package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/estop"
)

func parseStopLevel(s string) (api.EstopStopLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "allow":
		return api.EstopStopLevelNone, nil
	case "cut", "stop":
		return api.EstopStopLevelCut, nil
	case "settle", "settle-then-cut":
		return api.EstopStopLevelSettleThenCut, nil
	default:
		return api.EstopStopLevelUnknown, fmt.Errorf("unknown stop level %q (want none, settle or cut)", s)
	}
}

func newEstopCommand(a *app) *cobra.Command {
	var (
		name     string
		level    string
		duration time.Duration
		takeOver bool
	)
	cmd := &cobra.Command{
		Use:   "estop",
		Short: "Run an E-Stop endpoint and keep it checked in",
		Long: `Registers this process as the robot's E-Stop endpoint and checks in at the
requested stop level until --duration elapses or the process is interrupted.
When robotctl exits the check-ins stop and the robot cuts motor power.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := parseStopLevel(level)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			robot, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer robot.Close()

			endpoint, err := robot.NewEstopEndpoint(ctx, name)
			if err != nil {
				return err
			}
			if takeOver {
				err = endpoint.TakeOverSimpleSetup(ctx, name, robot.Params())
			} else {
				err = endpoint.ForceSimpleSetup(ctx, robot.Params())
			}
			if err != nil {
				return fmt.Errorf("estop setup: %w", err)
			}

			ka := estop.NewKeepAlive(endpoint,
				estop.WithInitialLevel(lvl),
				estop.WithKeepAliveLogger(a.logger),
			)
			defer ka.Shutdown()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "endpoint %s (%s) checking in every %s\n", endpoint.Name(), endpoint.UniqueID(), ka.Interval())

			var deadline <-chan time.Time
			if duration > 0 {
				timer := time.NewTimer(duration)
				defer timer.Stop()
				deadline = timer.C
			}
			for {
				select {
				case ev := <-ka.Events():
					fmt.Fprintf(out, "%s %s %s\n", ev.At.Format(time.RFC3339), ev.Health, ev.Message)
				case <-ka.Done():
					health, msg := ka.Latest()
					return fmt.Errorf("estop keepalive stopped: %s %s", health, msg)
				case <-deadline:
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "endpoint name (default robocore-<random>)")
	cmd.Flags().StringVar(&level, "level", "none", "stop level to assert: none, settle or cut")
	cmd.Flags().DurationVar(&duration, "duration", 0, "run for this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&takeOver, "take-over", false, "replace an existing endpoint of the same name instead of overwriting the configuration")
	return cmd
}
