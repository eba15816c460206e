package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/oshokin/scale-controller/internal/config"
	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/service/common"
)

// Options configures how scalectl reaches the server.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string
}

// FireOptions describes a manually fired alarm.
type FireOptions struct {
	// AlarmName is the alarm to send.
	AlarmName string
	// State is the alarm state, ALARM when empty.
	State string
	// Reason is attached as NewStateReason.
	Reason string
}

// Status prints the current scale and its resource table to out.
func Status(ctx context.Context, opts *Options, out io.Writer) error {
	return withClient(ctx, opts, func(ctx context.Context, client *common.Client) error {
		status, err := client.GetScale(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "scale:   %s\n", status.Scale)
		fmt.Fprintf(out, "version: %d\n", status.Version)

		if !status.UpdatedAt.IsZero() {
			fmt.Fprintf(out, "updated: %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
		}

		resources := status.Resources

		writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "RESOURCE\tCOUNT")
		fmt.Fprintf(writer, "ec2\t%d\n", resources.EC2)
		fmt.Fprintf(writer, "vpc\t%d\n", resources.VPC)
		fmt.Fprintf(writer, "route53\t%d\n", resources.Route53)
		fmt.Fprintf(writer, "s3\t%d\n", resources.S3)
		fmt.Fprintf(writer, "sg\t%d\n", resources.SecurityGroup)
		fmt.Fprintf(writer, "iam\t%d\n", resources.IAM)

		return writer.Flush()
	})
}

// Fire sends an alarm event and prints the outcome to out.
func Fire(ctx context.Context, opts *Options, fire *FireOptions, out io.Writer) error {
	state := strings.ToUpper(strings.TrimSpace(fire.State))
	if state == "" {
		state = domain.StateAlarm
	}

	return withClient(ctx, opts, func(ctx context.Context, client *common.Client) error {
		event := &domain.AlarmEvent{
			AlarmName:      fire.AlarmName,
			NewStateValue:  state,
			NewStateReason: fire.Reason,
		}

		// Best effort: the alarm is still sent when the user cannot be detected.
		if actor, err := common.DetectActor(); err == nil {
			event.AlarmDescription = "Fired manually by " + actor
		}

		logger.InfoKV(ctx, "Firing alarm", "alarm", event.AlarmName, "state", event.NewStateValue)

		result, err := client.FireAlarm(ctx, event)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, result.Message)

		if result.NotificationError != "" {
			fmt.Fprintf(out, "warning: notification failed: %s\n", result.NotificationError)
		}

		return nil
	})
}

// Rules prints the server's transition table to out.
func Rules(ctx context.Context, opts *Options, out io.Writer) error {
	return withClient(ctx, opts, func(ctx context.Context, client *common.Client) error {
		rules, err := client.ListRules(ctx)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "ALARM\tFROM\tTO")

		for _, rule := range rules {
			fmt.Fprintf(writer, "%s\t%s\t%s\n", rule.AlarmName, rule.From, rule.To)
		}

		return writer.Flush()
	})
}

// withClient loads configuration, dials the server and runs fn.
func withClient(ctx context.Context, opts *Options, fn func(context.Context, *common.Client) error) error {
	ctx = logger.WithName(ctx, "scalectl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	return fn(ctx, client)
}
