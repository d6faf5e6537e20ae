package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kochabx/blaze/service/onboarding"
)

func newOnboardingCommand(config func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "onboarding",
		Args:    cobra.NoArgs,
		Aliases: []string{"o"},
		Short:   "Driver onboarding commands",
	}

	cmd.AddCommand(
		newOnboardingStatusCommand(config),
		newManufacturersCommand(config),
	)
	return cmd
}

func newOnboardingStatusCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Show onboarding progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				st, err := rt.onboarding.Status(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				step, done := onboarding.ResolveStep(st)
				if done {
					fmt.Fprintln(out, "Onboarding complete")
					return nil
				}
				fmt.Fprintf(out, "Step %d/%d: %s\n", step, onboarding.TotalSteps, step)
				fmt.Fprintf(out, "  personal info  %s\n", check(st.HasPersonalInfo))
				fmt.Fprintf(out, "  driver info    %s\n", check(st.HasDriverInfo))
				fmt.Fprintf(out, "  vehicle        %s\n", check(st.HasVehicle))
				return nil
			})
		},
	}
}

func newManufacturersCommand(config func() string) *cobra.Command {
	var manufacturer string

	cmd := &cobra.Command{
		Use:   "vehicles",
		Args:  cobra.NoArgs,
		Short: "List vehicle manufacturers, or the models of one manufacturer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				if manufacturer != "" {
					models, err := rt.onboarding.Models(ctx, manufacturer)
					if err != nil {
						return err
					}
					for _, m := range models {
						fmt.Fprintf(out, "%s\t%s\n", m.ID, m.Name)
					}
					return nil
				}

				list, err := rt.onboarding.Manufacturers(ctx)
				if err != nil {
					return err
				}
				for _, m := range list {
					fmt.Fprintf(out, "%s\t%s\n", m.ID, m.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "manufacturer id")
	return cmd
}

func check(ok bool) string {
	if ok {
		return "done"
	}
	return "pending"
}
