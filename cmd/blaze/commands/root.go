package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	kerrors "github.com/kochabx/blaze/errors"
	transport "github.com/kochabx/blaze/transport/http"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "blaze",
		Short:         "Command line client for the blaze ride-hailing API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "print client metrics to stderr when the command finishes")

	config := func() string { return configFile }
	rootCmd.AddCommand(
		newLoginCommand(config),
		newVerifyOTPCommand(config),
		newLogoutCommand(config),
		newWhoamiCommand(config),
		newStatusCommand(config),
		newRidesCommand(config),
		newOnboardingCommand(config),
	)

	return rootCmd
}

// run 组装运行时、执行 fn 并释放资源，错误转成可展示的消息
func run(cmd *cobra.Command, config func() string, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, config())
	if err != nil {
		return err
	}
	defer rt.Close()

	err = fn(ctx, rt)
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		if derr := rt.dumpMetrics(cmd.ErrOrStderr()); derr != nil {
			rt.logger.Warn().Err(derr).Msg("failed to dump metrics")
		}
	}
	return display(err)
}

// display 把请求错误替换为归一化后的消息，其余错误原样返回
func display(err error) error {
	if err == nil {
		return nil
	}
	f := transport.Normalize(err)
	if f.Kind == kerrors.KindUnexpected {
		return err
	}
	return errors.New(f.Message)
}
