package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/scale-controller/internal/config"
	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/service/client"
	"github.com/oshokin/scale-controller/internal/service/common"
	"github.com/oshokin/scale-controller/internal/service/server"
)

// reserveAddress returns a free local TCP address.
func reserveAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startGRPC writes cfg to a temporary file, runs the real server and waits
// until it answers. The returned path is the config file.
func startGRPC(t *testing.T, cfg *config.Config) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, cfg))

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = server.Run(ctx, &server.Options{ConfigPath: cfgPath}) //nolint:errcheck // Failures show up as dial errors below.
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", cfg.ServerAddress, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 3*time.Second, 20*time.Millisecond)

	return cfgPath
}

// fire sends a firing alarm through the client.
func fire(ctx context.Context, t *testing.T, c *common.Client, alarmName string) string {
	t.Helper()

	result, err := c.FireAlarm(ctx, &domain.AlarmEvent{
		AlarmName:     alarmName,
		NewStateValue: domain.StateAlarm,
	})
	require.NoError(t, err)

	return result.Message
}

// TestGRPC_Roundtrip starts the real server over the file store and walks
// the scale up and back down.
func TestGRPC_Roundtrip(t *testing.T) {
	t.Parallel()

	addr := reserveAddress(t)
	statePath := filepath.Join(t.TempDir(), "state.json")

	startGRPC(t, &config.Config{
		ServerAddress: addr,
		Store:         config.StoreFile,
		StateFile:     statePath,
		Sink:          config.SinkLog,
		SeedMissing:   true,
		Timeout:       5 * time.Second,
	})

	ctx := context.Background()

	c, err := common.Dial(ctx, addr, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	current, err := c.GetScale(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Small, current.Scale)

	require.Contains(t, fire(ctx, t, c, domain.AlarmScaleUpSmallToMedium), "from small to medium")
	require.Contains(t, fire(ctx, t, c, domain.AlarmScaleUpSmallToMedium), "Remaining at medium")
	require.Contains(t, fire(ctx, t, c, domain.AlarmScaleUpMediumToLarge), "from medium to large")

	current, err = c.GetScale(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Large, current.Scale)
	require.Equal(t, 8, current.Resources.EC2)

	require.Contains(t, fire(ctx, t, c, domain.AlarmScaleDownLargeToMedium), "from large to medium")

	result, err := c.FireAlarm(ctx, &domain.AlarmEvent{
		AlarmName:     domain.AlarmScaleDownMediumToSmall,
		NewStateValue: domain.StateOK,
	})
	require.NoError(t, err)
	require.Equal(t, domain.ReasonNotFiring, result.Reason)

	_, err = c.FireAlarm(ctx, &domain.AlarmEvent{NewStateValue: domain.StateAlarm})
	require.Error(t, err)

	// The file store survives a restart of the process.
	_, err = os.Stat(statePath)
	require.NoError(t, err)

	rules, err := c.ListRules(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultRules(), rules)
}

// TestGRPC_RedisBackends runs the server over miniredis for both the store
// and the change stream, drives it through the scalectl operations and
// scrapes the metrics endpoint.
func TestGRPC_RedisBackends(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := reserveAddress(t)
	metricsAddr := reserveAddress(t)

	cfgPath := startGRPC(t, &config.Config{
		ServerAddress:    addr,
		MetricsAddress:   metricsAddr,
		Store:            config.StoreRedis,
		Sink:             config.SinkRedis,
		Redis:            config.Redis{Addr: mr.Addr()},
		SeedMissing:      true,
		ConditionalWrite: true,
		Timeout:          5 * time.Second,
	})

	ctx := context.Background()
	options := &client.Options{ConfigPath: cfgPath}

	var out bytes.Buffer

	require.NoError(t, client.Fire(ctx, options, &client.FireOptions{
		AlarmName: domain.AlarmScaleUpSmallToMedium,
		Reason:    "integration test",
	}, &out))
	require.Contains(t, out.String(), "from small to medium")

	out.Reset()
	require.NoError(t, client.Status(ctx, options, &out))
	require.Contains(t, out.String(), "scale:   medium")
	require.Contains(t, out.String(), "ec2")

	out.Reset()
	require.NoError(t, client.Rules(ctx, options, &out))
	require.Contains(t, out.String(), domain.AlarmScaleDownLargeToMedium)

	require.Equal(t, "medium", mr.HGet(config.DefaultParameterName, "value"))

	entries, err := mr.Stream(config.DefaultStream)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var subject, body string

	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		switch entries[0].Values[i] {
		case "subject":
			subject = entries[0].Values[i+1]
		case "body":
			body = entries[0].Values[i+1]
		}
	}

	require.Equal(t, "Deployment Scale Changed: small to medium", subject)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &record))
	require.Equal(t, "small", record["previousScale"])
	require.Equal(t, "medium", record["newScale"])

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+metricsAddr+"/metrics", nil)
	require.NoError(t, err)

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)

	defer func() {
		_ = response.Body.Close()
	}()

	scraped, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Contains(t, string(scraped), `scale_controller_transitions_total{from="small",to="medium"} 1`)
}
