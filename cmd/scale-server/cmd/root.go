package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/service/server"
	"github.com/oshokin/scale-controller/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// stateFile overrides the file store location.
	stateFile string
	// metricsAddress overrides the metrics listen address.
	metricsAddress string

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "scale-server [listen-address]",
		Short: "Run the deployment scale gRPC server.",
		Long: `Starts a gRPC server that handles alarm events and reports the current deployment scale.

The server uses the parameter store and notification sink selected in the configuration file.
Only the port from server_addr is used for listening (e.g., :7070).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7070).
When metrics_addr is set, Prometheus metrics are served on /metrics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:     configPath,
				ListenAddress:  listenAddress,
				MetricsAddress: metricsAddress,
				StateFile:      stateFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the scale-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&stateFile, "state-file", "s", "", "path to the state file used by the file store")
	rootCmd.Flags().StringVarP(&metricsAddress, "metrics-addr", "m", "", "address for the Prometheus metrics listener")
}
