package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTimeSyncCommand(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "timesync",
		Short: "Establish time sync and print the robot clock skew",
		RunE: func(cmd *cobra.Command, args []string) error {
			robot, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer robot.Close()

			keeper, err := robot.StartTimeSync(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			if err := keeper.WaitForSync(ctx); err != nil {
				return fmt.Errorf("time sync: %w", err)
			}
			endpoint := keeper.Endpoint()
			skew, err := endpoint.ClockSkew()
			if err != nil {
				return err
			}
			rtt, err := endpoint.RoundTripTime()
			if err != nil {
				return err
			}
			robotNow, err := keeper.RobotNow()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "clock:      %s\n", endpoint.ClockIdentifier())
			fmt.Fprintf(out, "skew:       %s\n", skew)
			fmt.Fprintf(out, "round trip: %s\n", rtt)
			fmt.Fprintf(out, "robot time: %s\n", robotNow.UTC().Format(time.RFC3339Nano))
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for sync to be established")
	return cmd
}
