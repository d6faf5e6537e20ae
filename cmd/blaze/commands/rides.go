package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kochabx/blaze/app"
	"github.com/kochabx/blaze/cache"
	"github.com/kochabx/blaze/service/keys"
	"github.com/kochabx/blaze/service/ride"
)

func newRidesCommand(config func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rides",
		Args:    cobra.NoArgs,
		Aliases: []string{"r"},
		Short:   "Ride commands",
	}

	cmd.AddCommand(
		newRidesHistoryCommand(config),
		newRidesActiveCommand(config),
		newRidesCancelCommand(config),
	)
	return cmd
}

func newRidesHistoryCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Args:  cobra.NoArgs,
		Short: "List past rides",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				rides, err := rt.rides.History(ctx)
				if err != nil {
					return err
				}
				if len(rides) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No rides yet")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATUS\tFROM\tTO\tFARE\tDATE")
				for _, r := range rides {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
						r.ID, r.Status, r.PickupLocation.Address, r.DropoffLocation.Address, r.Fare,
						r.CreatedAt.Local().Format(time.DateTime))
				}
				return w.Flush()
			})
		},
	}
}

func newRidesActiveCommand(config func() string) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "active",
		Args:  cobra.NoArgs,
		Short: "Show the ride in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				if !watch {
					r, err := rt.rides.Active(ctx)
					if err != nil {
						return err
					}
					printRide(cmd.OutOrStdout(), r)
					return nil
				}
				if interval <= 0 {
					interval = rt.cfg.Cache.PollInterval
				}
				a := app.New(app.WithContext(ctx))
				return a.Run(func(ctx context.Context) error {
					return watchActive(ctx, cmd.OutOrStdout(), rt, interval)
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling until the ride ends")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default cache.poll_interval)")
	return cmd
}

// watchActive 打印状态变化，直到行程结束或 ctx 取消
func watchActive(ctx context.Context, out io.Writer, rt *runtime, interval time.Duration) error {
	r, p, err := rt.rides.WatchActive(ctx, interval)
	if err != nil {
		return err
	}
	defer p.Stop()

	printRide(out, r)
	if r == nil {
		return nil
	}
	last := r.Status

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.Done():
			fmt.Fprintln(out, "Ride ended")
			return nil
		case <-ticker.C:
			cur, ok := cache.Get[*ride.Ride](rt.cache, keys.ActiveRide())
			if ok && cur != nil && cur.Status != last {
				last = cur.Status
				fmt.Fprintf(out, "%s  %s\n", time.Now().Format(time.TimeOnly), last)
			}
		}
	}
}

func printRide(out io.Writer, r *ride.Ride) {
	if r == nil {
		fmt.Fprintln(out, "No active ride")
		return
	}
	fmt.Fprintf(out, "Ride:   %s\n", r.ID)
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "From:   %s\n", r.PickupLocation.Address)
	fmt.Fprintf(out, "To:     %s\n", r.DropoffLocation.Address)
	fmt.Fprintf(out, "Fare:   %.2f\n", r.Fare)
}

func newRidesCancelCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <ride-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Cancel a ride",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				r, err := rt.rides.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ride %s %s\n", r.ID, r.Status)
				return nil
			})
		},
	}
}
