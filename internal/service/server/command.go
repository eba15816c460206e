package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	api "github.com/oshokin/scale-controller/internal/api/grpc/scale"
	"github.com/oshokin/scale-controller/internal/bootstrap"
	"github.com/oshokin/scale-controller/internal/config"
	"github.com/oshokin/scale-controller/internal/logger"
	pb "github.com/oshokin/scale-controller/internal/pb/v1"
)

// Options controls the scale-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// MetricsAddress overrides the metrics listen address from config.
	MetricsAddress string
	// StateFile overrides the state file used by the file store.
	StateFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// metricsShutdownTimeout bounds the metrics listener shutdown.
const metricsShutdownTimeout = 5 * time.Second

// Run starts the gRPC server and blocks until context is canceled or server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "scale-server")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.StateFile != "" {
		settings.StateFile = opts.StateFile
	}

	if opts.MetricsAddress != "" {
		settings.MetricsAddress = opts.MetricsAddress
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	components, err := bootstrap.Build(ctx, settings, registry)
	if err != nil {
		return fmt.Errorf("initialise controller: %w", err)
	}

	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to close connections", "error", closeErr)
		}
	}()

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterScaleServiceServer(grpcServer, api.NewServer(newService(components.Controller)))

	if settings.MetricsAddress != "" {
		stopMetrics, err := serveMetrics(ctx, settings.MetricsAddress, registry)
		if err != nil {
			_ = lis.Close()

			return err
		}

		defer stopMetrics()
	}

	logger.InfoKV(ctx, "Scale server listening",
		"listen_address", listenAddress,
		"store", settings.Store,
		"sink", settings.Sink,
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// serveMetrics exposes registry on address under /metrics.
// The returned function shuts the listener down.
func serveMetrics(ctx context.Context, address string, registry *prometheus.Registry) (func(), error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", address, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: time.Second,
	}

	go func() {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics server failed", "error", err)
		}
	}()

	logger.InfoKV(ctx, "Metrics listening", "metrics_address", lis.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		_ = httpServer.Shutdown(shutdownCtx)
	}, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}
