package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	api "github.com/oshokin/scale-controller/internal/api/lambda"
	"github.com/oshokin/scale-controller/internal/bootstrap"
	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/version"
)

var (
	// configPath to an optional configuration YAML file. Environment only when empty.
	configPath string
	// localEvent is a JSON event file handled once instead of starting the runtime.
	localEvent string

	// rootCmd runs the Lambda handler.
	rootCmd = &cobra.Command{
		Use:   "scale-handler",
		Short: "Handle deployment scale alarms as an AWS Lambda function.",
		Long: `Starts the AWS Lambda runtime loop. Each invocation carries an SNS notification
with a CloudWatch alarm; the handler moves the deployment scale one tier according
to the transition table, stores it in SSM Parameter Store and publishes the change to SNS.

Configuration is read from the environment (REGION, SNS_TOPIC_ARN, PARAMETER_NAME, ...).
Use --local to run a single event file through the same handler and print the response.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger.Configure(cfg.LogLevel, cfg.LogFormat)

			// Nothing scrapes a Lambda function, so the counters stay unregistered.
			components, err := bootstrap.Build(ctx, cfg, nil)
			if err != nil {
				return err
			}

			defer func() {
				_ = components.Close()
			}()

			handler := api.NewHandler(components.Controller, cfg.RedeliverOnFailure)

			if localEvent != "" {
				return runLocal(ctx, cmd, handler)
			}

			lambda.Start(handler.Handle)

			return nil
		},
	}
)

// Execute runs the scale-handler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}

// loadConfig reads the file when given, otherwise the environment.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.LoadEnv()
	}

	return config.Load(configPath)
}

// runLocal handles the event in localEvent once and prints the response.
// The handler logs at debug level so the decoded payload is visible.
func runLocal(ctx context.Context, cmd *cobra.Command, handler *api.Handler) error {
	ctx = logger.WithMinLevel(ctx, zapcore.DebugLevel)

	payload, err := os.ReadFile(filepath.Clean(localEvent))
	if err != nil {
		return fmt.Errorf("read event: %w", err)
	}

	response, handleErr := handler.Handle(ctx, payload)
	if response != nil {
		encoded, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	}

	return handleErr
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (environment only when empty)")
	rootCmd.Flags().StringVarP(&localEvent, "local", "l", "", "handle a single JSON event file and exit")
}
