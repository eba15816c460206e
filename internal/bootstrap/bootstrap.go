// Package bootstrap wires a scale controller from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/scale-controller/internal/awsclient"
	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/metrics"
	"github.com/oshokin/scale-controller/internal/notifier"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
	"github.com/oshokin/scale-controller/internal/service/controller"
	"github.com/oshokin/scale-controller/internal/version"
)

// streamMaxLen caps the redis notification stream.
const streamMaxLen = 10000

// Components are the wired collaborators of a controller.
type Components struct {
	// Controller handles alarm events.
	Controller *controller.Controller
	// Store is the parameter store the controller uses.
	Store parameter.Store
	// Publisher is the notification sink the controller uses.
	Publisher notifier.Publisher
	// Metrics is registered on the registry passed to Build.
	Metrics *metrics.Metrics

	// closers release connections on Close.
	closers []func() error
}

// Close releases connections opened by Build.
func (c *Components) Close() error {
	var errs []error

	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Build creates the store, publisher and controller selected by cfg.
// AWS configuration is only loaded when an AWS backend is selected.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Components, error) {
	table, err := cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("build transition table: %w", err)
	}

	initial, err := scale.Parse(cfg.InitialScale)
	if err != nil {
		return nil, fmt.Errorf("parse initial scale: %w", err)
	}

	components := new(Components)
	clients := &lazyClients{cfg: cfg}

	if components.Store, err = buildStore(ctx, cfg, clients, components); err != nil {
		return nil, errors.Join(err, components.Close())
	}

	if components.Publisher, err = buildPublisher(ctx, cfg, clients, components); err != nil {
		return nil, errors.Join(err, components.Close())
	}

	components.Metrics = metrics.New(reg)

	components.Controller, err = controller.New(components.Store, components.Publisher, &controller.Options{
		Table:            table,
		InitialScale:     initial,
		SeedMissing:      cfg.SeedMissing,
		ConditionalWrite: cfg.ConditionalWrite,
		MaxWriteAttempts: cfg.MaxWriteAttempts,
		Metrics:          components.Metrics,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create controller: %w", err), components.Close())
	}

	fields := []any{
		"store", cfg.Store,
		"sink", cfg.Sink,
		"parameter", cfg.ParameterName,
		"conditional_write", cfg.ConditionalWrite,
		"rules", len(table.Rules()),
	}

	logger.InfoKV(ctx, "Scale controller ready", append(fields, version.Fields()...)...)

	return components, nil
}

// buildStore creates the configured parameter store.
func buildStore(ctx context.Context, cfg *config.Config, clients *lazyClients, components *Components) (parameter.Store, error) {
	switch cfg.Store {
	case config.StoreSSM:
		awsCfg, err := clients.loadAWS(ctx)
		if err != nil {
			return nil, err
		}

		return parameter.NewSSMStore(awsclient.NewSSMClient(awsCfg), cfg.ParameterName), nil
	case config.StoreRedis:
		return parameter.NewRedisStore(clients.redisFor(components), cfg.ParameterName, nil), nil
	case config.StoreFile:
		return parameter.NewFileStore(cfg.ParameterName, cfg.StateFile, nil), nil
	case config.StoreMemory:
		return parameter.NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// buildPublisher creates the configured notification sinks. Several sinks
// are combined into a notifier.Multi.
func buildPublisher(
	ctx context.Context,
	cfg *config.Config,
	clients *lazyClients,
	components *Components,
) (notifier.Publisher, error) {
	sinks := cfg.Sinks()
	if len(sinks) == 1 {
		return buildSink(ctx, sinks[0], cfg, clients, components)
	}

	publishers := make(notifier.Multi, 0, len(sinks))

	for _, sink := range sinks {
		publisher, err := buildSink(ctx, sink, cfg, clients, components)
		if err != nil {
			return nil, err
		}

		publishers = append(publishers, publisher)
	}

	return publishers, nil
}

// buildSink creates a single notification sink.
func buildSink(
	ctx context.Context,
	sink string,
	cfg *config.Config,
	clients *lazyClients,
	components *Components,
) (notifier.Publisher, error) {
	switch sink {
	case config.SinkSNS:
		awsCfg, err := clients.loadAWS(ctx)
		if err != nil {
			return nil, err
		}

		if cfg.TopicARN == "" {
			logger.Warn(ctx, "SNS topic is not set, scale changes will be stored but not published")
		}

		return notifier.NewSNSPublisher(awsclient.NewSNSClient(awsCfg), cfg.TopicARN), nil
	case config.SinkRedis:
		return notifier.NewRedisStreamPublisher(clients.redisFor(components), cfg.Redis.Stream, streamMaxLen), nil
	case config.SinkLog:
		return notifier.LogPublisher{}, nil
	case config.SinkNone:
		return notifier.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown sink %q", sink)
	}
}

// lazyClients shares AWS config and the redis connection between store and sink.
type lazyClients struct {
	cfg *config.Config

	awsOnce   sync.Once
	awsConfig aws.Config
	awsErr    error

	redisClient *redis.Client
}

// loadAWS loads the AWS configuration once.
func (l *lazyClients) loadAWS(ctx context.Context) (aws.Config, error) {
	l.awsOnce.Do(func() {
		l.awsConfig, l.awsErr = awsclient.LoadConfig(ctx, l.cfg.Region)
	})

	return l.awsConfig, l.awsErr
}

// redisFor opens the redis connection once and registers it for Close.
func (l *lazyClients) redisFor(components *Components) *redis.Client {
	if l.redisClient == nil {
		l.redisClient = redis.NewClient(&redis.Options{
			Addr:        l.cfg.Redis.Addr,
			Password:    l.cfg.Redis.Password,
			DB:          l.cfg.Redis.DB,
			DialTimeout: l.cfg.Timeout,
		})
		components.closers = append(components.closers, l.redisClient.Close)
	}

	return l.redisClient
}
