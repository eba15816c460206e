package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// SNS sink without a topic is accepted.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, SinkSNS, cfg.Sink)

	// Defaults are filled in.
	cfg = &Config{Sink: SinkLog}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultParameterName, cfg.ParameterName)
	require.Equal(t, StoreSSM, cfg.Store)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultMaxWriteAttempts, cfg.MaxWriteAttempts)
	require.Equal(t, "small", cfg.InitialScale)

	// Redis backends need an address.
	cfg = &Config{Store: StoreRedis, Sink: SinkNone}
	require.ErrorIs(t, Validate(cfg), errRedisAddrRequired)

	cfg = &Config{Store: StoreMemory, Sink: SinkRedis}
	require.ErrorIs(t, Validate(cfg), errRedisAddrRequired)

	// Unknown backends.
	require.Error(t, Validate(&Config{Store: "etcd", Sink: SinkNone}))
	require.Error(t, Validate(&Config{Store: StoreFile, Sink: "pager"}))

	// Sink lists are validated per sink.
	cfg = &Config{Store: StoreMemory, Sink: " SNS , log ", TopicARN: "arn:aws:sns:us-east-1:123456789012:scale"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, []string{SinkSNS, SinkLog}, cfg.Sinks())
	require.ErrorIs(t, Validate(&Config{Store: StoreMemory, Sink: "log,redis"}), errRedisAddrRequired)
	require.Error(t, Validate(&Config{Store: StoreMemory, Sink: "log,pager"}))

	// Bad initial scale and bad socket.
	require.Error(t, Validate(&Config{Sink: SinkNone, InitialScale: "huge"}))
	require.Error(t, Validate(&Config{Sink: SinkNone, ServerAddress: "bad:address"}))

	// Rules are validated through the domain table.
	cfg = &Config{
		Sink: SinkNone,
		Rules: []scale.Rule{
			{AlarmName: "scale-up-jump", From: scale.Small, To: scale.Large},
		},
	}
	require.ErrorIs(t, Validate(cfg), scale.ErrInvalidRule)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		Store:            StoreFile,
		Sink:             SinkLog,
		StateFile:        filepath.Join(dir, "scale.json"),
		ServerAddress:    "127.0.0.1:50051",
		ConditionalWrite: true,
		Rules: []scale.Rule{
			{AlarmName: "scale-up-small-to-medium", From: scale.Small, To: scale.Medium},
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ServerAddress, loaded.ServerAddress)
	require.Equal(t, cfg.StateFile, loaded.StateFile)
	require.True(t, loaded.ConditionalWrite)
	require.Equal(t, cfg.Rules, loaded.Rules)

	table, err := loaded.Table()
	require.NoError(t, err)
	require.Len(t, table.Rules(), 1)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestApplyEnv verifies environment overrides used by the Lambda runtime.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvRegion:           "eu-west-1",
		EnvTopicARN:         "arn:aws:sns:eu-west-1:123456789012:scale",
		EnvConditionalWrite: "true",
		EnvSeedMissing:      "not-a-bool",
		EnvLogFormat:        "json",
	}

	cfg := Default()
	applyEnv(cfg, func(key string) (string, bool) {
		value, ok := env[key]

		return value, ok
	})

	require.Equal(t, "eu-west-1", cfg.Region)
	require.Equal(t, env[EnvTopicARN], cfg.TopicARN)
	require.True(t, cfg.ConditionalWrite)
	require.False(t, cfg.SeedMissing)
	require.Equal(t, "json", cfg.LogFormat)
	require.NoError(t, Validate(cfg))

	table, err := cfg.Table()
	require.NoError(t, err)
	require.Len(t, table.Rules(), len(scale.DefaultRules()))
}

// TestLoad_ClientOnlySettings loads the minimal file scalectl needs.
func TestLoad_ClientOnlySettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scalectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_addr: 127.0.0.1:7070\n"), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7070", cfg.ServerAddress)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}
