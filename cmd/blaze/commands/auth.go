package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kochabx/blaze/service/onboarding"
	"github.com/kochabx/blaze/session"
)

const envPassword = "BLAZE_PASSWORD"

func newLoginCommand(config func() string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Log in with email and password",
		Long:  "Log in with email and password. The password may also be passed in " + envPassword + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(envPassword)
			}
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				intent, err := rt.session.Login(ctx, email, password)
				if err != nil {
					return err
				}
				printIntent(cmd, rt, intent)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newVerifyOTPCommand(config func() string) *cobra.Command {
	var phone, otp string

	cmd := &cobra.Command{
		Use:   "verify-otp",
		Args:  cobra.NoArgs,
		Short: "Finish a login that requires a one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				intent, err := rt.session.VerifyOTP(ctx, phone, otp)
				if err != nil {
					return err
				}
				printIntent(cmd, rt, intent)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "phone number the code was sent to")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time code")
	return cmd
}

func printIntent(cmd *cobra.Command, rt *runtime, intent session.Intent) {
	out := cmd.OutOrStdout()
	name := rt.session.Snapshot().User.FullName()

	switch intent.Screen {
	case session.ScreenOTP:
		fmt.Fprintln(out, "Verification code required, run `blaze verify-otp --phone <number> --otp <code>`")
	case session.ScreenOnboarding:
		step := onboarding.Step(intent.Step)
		fmt.Fprintf(out, "Logged in as %s\n", name)
		fmt.Fprintf(out, "Driver onboarding incomplete, continue at step %d/%d (%s)\n", step, onboarding.TotalSteps, step)
	default:
		fmt.Fprintf(out, "Logged in as %s\n", name)
	}
}

func newLogoutCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Log out and remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				rt.session.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newStatusCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Report whether credentials are stored locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				ok, err := rt.user.Status(ctx)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				}
				return nil
			})
		},
	}
}

func newWhoamiCommand(config func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, config, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireLogin(); err != nil {
					return err
				}
				u, err := rt.user.User(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Name:  %s\n", u.FullName())
				fmt.Fprintf(out, "Email: %s\n", u.Email)
				fmt.Fprintf(out, "Role:  %s\n", u.Role)
				if u.NeedsOnboarding() {
					fmt.Fprintf(out, "Onboarding: step %d/%d\n", u.NextOnboardingStep(), onboarding.TotalSteps)
				}
				return nil
			})
		},
	}
}
