package watcher

import (
	"context"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"

	api "github.com/oshokin/scale-controller/internal/api/grpc/scale"
	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/service/common"
)

// Options controls the watcher polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between status checks.
	PollInterval time.Duration
}

// DefaultPollInterval is used when no interval is given.
const DefaultPollInterval = 5 * time.Second

// StatusSource reports the current scale.
type StatusSource interface {
	GetScale(ctx context.Context) (*api.Status, error)
}

// Change is reported when the observed scale differs from the previous poll.
type Change struct {
	// Previous is the status seen before, nil on the first successful poll.
	Previous *api.Status
	// Current is the status just observed.
	Current *api.Status
}

// Run dials the server and logs scale changes until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "scale-watch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching deployment scale", "server_address", serverAddress, "interval", interval.String())

	Watch(ctx, client, clock.NewClock(), interval, logChange)

	return nil
}

// Watch polls source every interval and calls onChange whenever the scale
// differs from the last observed one. It returns when ctx is canceled.
// Poll failures are logged and do not reset the last observed scale.
func Watch(
	ctx context.Context,
	source StatusSource,
	clk clock.Clock,
	interval time.Duration,
	onChange func(context.Context, Change),
) {
	var last *api.Status

	poll := func() {
		current, err := source.GetScale(ctx)
		if err != nil {
			logger.ErrorKV(ctx, "Get scale failed", "error", err)

			return
		}

		if last != nil && last.Scale == current.Scale {
			return
		}

		onChange(ctx, Change{Previous: last, Current: current})
		last = current
	}

	poll()

	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return
		case <-ticker.C():
			poll()
		}
	}
}

// logChange writes a change with its resource table.
func logChange(ctx context.Context, change Change) {
	current := change.Current

	if change.Previous == nil {
		logger.InfoKV(ctx, "Current deployment scale",
			"scale", current.Scale,
			"version", current.Version,
			"resources", current.Resources.AsMap(),
		)

		return
	}

	logger.InfoKV(ctx, "Deployment scale changed",
		"from", change.Previous.Scale,
		"to", current.Scale,
		"version", current.Version,
		"updated_at", current.UpdatedAt.Format(time.RFC3339),
		"resources", current.Resources.AsMap(),
	)
}
