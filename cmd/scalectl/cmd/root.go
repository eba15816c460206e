package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/service/client"
	"github.com/oshokin/scale-controller/internal/service/watcher"
	"github.com/oshokin/scale-controller/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the server address from config.
	serverAddress string
	// alarmState is the state sent by fire.
	alarmState string
	// alarmReason is the reason sent by fire.
	alarmReason string
	// pollInterval is the watch polling interval.
	pollInterval time.Duration

	// rootCmd is the scalectl entry point.
	rootCmd = &cobra.Command{
		Use:   "scalectl",
		Short: "Inspect and drive the deployment scale server.",
		Long: `scalectl talks to a running scale-server over gRPC.

It prints the current deployment scale with its expected resources, fires alarms by hand,
lists the transition table and watches the scale for changes.`,
		SilenceUsage: true,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print the current scale and its resources.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Status(cmd.Context(), clientOptions(), cmd.OutOrStdout())
		},
	}

	fireCmd = &cobra.Command{
		Use:   "fire <alarm-name>",
		Short: "Send an alarm event to the server.",
		Long: `Sends an alarm event as if CloudWatch had raised it.

The state defaults to ALARM; use --state OK to check that non-firing alarms are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fire := &client.FireOptions{
				AlarmName: args[0],
				State:     alarmState,
				Reason:    alarmReason,
			}

			return client.Fire(cmd.Context(), clientOptions(), fire, cmd.OutOrStdout())
		},
	}

	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List the transition table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Rules(cmd.Context(), clientOptions(), cmd.OutOrStdout())
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Poll the server and log every scale change.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := &watcher.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  pollInterval,
			}

			return watcher.Run(cmd.Context(), options)
		},
	}
)

// Execute runs the scalectl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}

// clientOptions collects the connection flags.
func clientOptions() *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "scale server address, overrides server_addr from config")

	fireCmd.Flags().StringVar(&alarmState, "state", "ALARM", "alarm state: ALARM, OK or INSUFFICIENT_DATA")
	fireCmd.Flags().StringVar(&alarmReason, "reason", "Fired manually", "reason attached to the alarm")

	watchCmd.Flags().DurationVarP(&pollInterval, "interval", "i", watcher.DefaultPollInterval, "polling interval")

	rootCmd.AddCommand(statusCmd, fireCmd, rulesCmd, watchCmd)
}
