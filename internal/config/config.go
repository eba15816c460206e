package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// Config holds the settings shared by the scale binaries.
type Config struct {
	// Region is the AWS region for SSM and SNS clients.
	Region string `yaml:"region"`
	// ParameterName is the key of the deployment scale parameter.
	ParameterName string `yaml:"parameter_name"`
	// TopicARN is the SNS topic receiving change records.
	TopicARN string `yaml:"topic_arn"`
	// Store selects the parameter store backend.
	Store string `yaml:"store"`
	// Sink selects the notification sink. Several sinks are separated by commas.
	Sink string `yaml:"sink"`
	// StateFile is the JSON file used by the file store.
	StateFile string `yaml:"state_file"`
	// Redis configures the redis store and stream sink.
	Redis Redis `yaml:"redis"`
	// InitialScale is used when the parameter does not exist and SeedMissing is set.
	InitialScale string `yaml:"initial_scale"`
	// SeedMissing treats a missing parameter as InitialScale instead of failing.
	SeedMissing bool `yaml:"seed_missing"`
	// ConditionalWrite rejects writes when the parameter changed since it was read.
	ConditionalWrite bool `yaml:"conditional_write"`
	// MaxWriteAttempts bounds read-decide-write retries on conflicting writes.
	MaxWriteAttempts int `yaml:"max_write_attempts"`
	// RedeliverOnFailure makes the Lambda handler fail the invocation on
	// persistence errors so the runtime redelivers the event.
	RedeliverOnFailure bool `yaml:"redeliver_on_failure"`
	// Rules overrides the built-in transition table.
	Rules []scale.Rule `yaml:"rules,omitempty"`
	// ServerAddress is the gRPC address of the scale server.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress enables the Prometheus endpoint of the scale server.
	MetricsAddress string `yaml:"metrics_addr"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum log level name.
	LogLevel string `yaml:"log_level"`
	// LogFormat is either "console" or "json".
	LogFormat string `yaml:"log_format"`
}

// Redis holds redis connection and key settings.
type Redis struct {
	// Addr is the host:port of the redis server.
	Addr string `yaml:"addr"`
	// Password is optional.
	Password string `yaml:"password"`
	// DB is the logical database number.
	DB int `yaml:"db"`
	// Stream is the stream key used by the redis sink.
	Stream string `yaml:"stream"`
}

// Parameter store backends.
const (
	StoreSSM    = "ssm"
	StoreRedis  = "redis"
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Notification sinks.
const (
	SinkSNS   = "sns"
	SinkRedis = "redis"
	SinkLog   = "log"
	SinkNone  = "none"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "scale-controller.yaml"

	// DefaultStateFilename is the default filename for the file store.
	DefaultStateFilename = "deployment-scale.json"

	// DefaultParameterName is the key of the deployment scale parameter.
	DefaultParameterName = "/infrastructure/deployment_scale"

	// DefaultStream is the default redis stream for change records.
	DefaultStream = "deployment-scale-changes"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxWriteAttempts is the default bound on conflicting write retries.
	DefaultMaxWriteAttempts = 3

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600
)

// Environment variables consulted by LoadEnv and Load.
const (
	EnvRegion           = "REGION"
	EnvAWSRegion        = "AWS_REGION"
	EnvTopicARN         = "SNS_TOPIC_ARN"
	EnvParameterName    = "PARAMETER_NAME"
	EnvStore            = "SCALE_STORE"
	EnvSink             = "SCALE_SINK"
	EnvStateFile        = "SCALE_STATE_FILE"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisStream      = "REDIS_STREAM"
	EnvInitialScale     = "INITIAL_SCALE"
	EnvSeedMissing      = "SEED_MISSING"
	EnvConditionalWrite = "CONDITIONAL_WRITE"
	EnvRedeliver        = "REDELIVER_ON_FAILURE"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errRedisAddrRequired is returned when a redis backend has no address.
	errRedisAddrRequired = errors.New("redis address must be provided")
)

// Default returns a configuration matching the Lambda deployment defaults.
func Default() *Config {
	return &Config{
		ParameterName:    DefaultParameterName,
		Store:            StoreSSM,
		Sink:             SinkSNS,
		StateFile:        DefaultStateFilename,
		InitialScale:     string(scale.Small),
		MaxWriteAttempts: DefaultMaxWriteAttempts,
		Timeout:          DefaultTimeout,
		LogLevel:         "info",
		LogFormat:        "console",
		Redis: Redis{
			Stream: DefaultStream,
		},
	}
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	applyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnv builds configuration from defaults and environment variables only.
// The Lambda runtime ships no settings file.
func LoadEnv() (*Config, error) {
	cfg := Default()
	applyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields, fills defaults and validates the rule table.
// An SNS sink without a topic is accepted: every publish then fails and is
// reported on the outcome, while scale changes are still persisted.
//
//nolint:cyclop // A flat list of independent checks.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	fillDefaults(cfg)

	switch cfg.Store {
	case StoreSSM, StoreFile, StoreMemory:
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			return errRedisAddrRequired
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	for _, sink := range cfg.Sinks() {
		switch sink {
		case SinkLog, SinkNone, SinkSNS:
		case SinkRedis:
			if cfg.Redis.Addr == "" {
				return errRedisAddrRequired
			}
		default:
			return fmt.Errorf("unknown sink %q", sink)
		}
	}

	if _, err := scale.Parse(cfg.InitialScale); err != nil {
		return fmt.Errorf("invalid initial scale: %w", err)
	}

	if len(cfg.Rules) > 0 {
		if _, err := scale.NewTable(cfg.Rules); err != nil {
			return fmt.Errorf("invalid rules: %w", err)
		}
	}

	if cfg.ServerAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
			return fmt.Errorf("invalid server socket: %w", err)
		}
	}

	return nil
}

// Sinks splits the comma-separated sink list.
func (c *Config) Sinks() []string {
	var sinks []string

	for _, sink := range strings.Split(c.Sink, ",") {
		if sink = strings.ToLower(strings.TrimSpace(sink)); sink != "" {
			sinks = append(sinks, sink)
		}
	}

	return sinks
}

// Table returns the configured transition table or the built-in one.
func (c *Config) Table() (*scale.Table, error) {
	if len(c.Rules) == 0 {
		return scale.DefaultTable(), nil
	}

	return scale.NewTable(c.Rules)
}

// fillDefaults sets defaults for zero-valued fields.
func fillDefaults(cfg *Config) {
	if cfg.ParameterName == "" {
		cfg.ParameterName = DefaultParameterName
	}

	if cfg.Store == "" {
		cfg.Store = StoreSSM
	}

	if cfg.Sink == "" {
		cfg.Sink = SinkSNS
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.InitialScale == "" {
		cfg.InitialScale = string(scale.Small)
	}

	if cfg.MaxWriteAttempts <= 0 {
		cfg.MaxWriteAttempts = DefaultMaxWriteAttempts
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = DefaultStream
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.Sink = strings.ToLower(strings.TrimSpace(cfg.Sink))
}

// applyEnv overrides fields from environment variables resolved by lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	texts := []struct {
		key    string
		target *string
	}{
		{EnvAWSRegion, &cfg.Region},
		{EnvRegion, &cfg.Region},
		{EnvTopicARN, &cfg.TopicARN},
		{EnvParameterName, &cfg.ParameterName},
		{EnvStore, &cfg.Store},
		{EnvSink, &cfg.Sink},
		{EnvStateFile, &cfg.StateFile},
		{EnvRedisAddr, &cfg.Redis.Addr},
		{EnvRedisStream, &cfg.Redis.Stream},
		{EnvInitialScale, &cfg.InitialScale},
		{EnvLogLevel, &cfg.LogLevel},
		{EnvLogFormat, &cfg.LogFormat},
	}

	for _, s := range texts {
		if value, ok := lookup(s.key); ok && value != "" {
			*s.target = value
		}
	}

	bools := []struct {
		key    string
		target *bool
	}{
		{EnvSeedMissing, &cfg.SeedMissing},
		{EnvConditionalWrite, &cfg.ConditionalWrite},
		{EnvRedeliver, &cfg.RedeliverOnFailure},
	}

	for _, b := range bools {
		value, ok := lookup(b.key)
		if !ok {
			continue
		}

		if parsed, err := strconv.ParseBool(value); err == nil {
			*b.target = parsed
		}
	}
}
