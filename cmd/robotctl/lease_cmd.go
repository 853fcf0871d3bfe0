package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pkt.systems/robocore/api"
	"pkt.systems/robocore/lease"
)

func newLeaseCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect and acquire robot leases",
	}
	cmd.AddCommand(newLeaseListCommand(a))
	cmd.AddCommand(newLeaseGrabCommand(a, "acquire", "Acquire a free resource"))
	cmd.AddCommand(newLeaseGrabCommand(a, "take", "Take a resource from its current owner"))
	return cmd
}

func newLeaseListCommand(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the lease state of every resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			robot, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer robot.Close()
			lc, err := robot.LeaseClient(cmd.Context())
			if err != nil {
				return err
			}
			resources, err := lc.ListLeases(cmd.Context(), full, robot.Params())
			if err != nil {
				return err
			}
			writeLeaseTable(cmd, resources)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include full lease information")
	return cmd
}

func writeLeaseTable(cmd *cobra.Command, resources []*api.LeaseResource) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tLEASE\tOWNER\tSTALE")
	for _, r := range resources {
		owner := "-"
		if r.LeaseOwner != nil && r.LeaseOwner.ClientName != "" {
			owner = r.LeaseOwner.ClientName
		}
		held := "-"
		if r.Lease != nil {
			held = lease.FromProto(r.Lease).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Resource, held, owner, r.IsStale)
	}
	_ = tw.Flush()
}

func newLeaseGrabCommand(a *app, verb, short string) *cobra.Command {
	var resource string
	var hold time.Duration
	cmd := &cobra.Command{
		Use:   verb,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			robot, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer robot.Close()
			lc, err := robot.LeaseClient(ctx)
			if err != nil {
				return err
			}
			var got lease.Lease
			if verb == "take" {
				got, err = lc.TakeLease(ctx, resource, robot.Params())
			} else {
				got, err = lc.AcquireLease(ctx, resource, robot.Params())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, got)
			if hold <= 0 {
				return nil
			}

			ka := lease.NewKeepAlive(robot.Wallet(), lc, resource,
				lease.WithReturnAtShutdown(true),
				lease.WithRPCParams(robot.Params()),
				lease.WithKeepAliveLogger(a.logger),
			)
			defer ka.Stop()
			started := time.Now()
			timer := time.NewTimer(hold)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
			case <-ka.Done():
				return fmt.Errorf("lease keepalive for %s ended after %s", resource, humanize.RelTime(started, time.Now(), "", ""))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "returning %s, held since %s\n", resource, humanize.Time(started))
			return nil
		},
	}
	cmd.Flags().StringVar(&resource, "resource", lease.DefaultResource, "resource to lease")
	cmd.Flags().DurationVar(&hold, "hold", 0, "keep the lease alive for this long, then return it")
	return cmd
}
