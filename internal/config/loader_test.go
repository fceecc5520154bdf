package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripboard/internal/constants"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
server:
  port: 8080
  read_timeout_seconds: 30
  write_timeout_seconds: 45
database:
  redis:
    host: localhost
    port: 6379
    ttl_seconds: 0
  mongodb:
    uri: mongodb://localhost:27017
logging:
  level: info
aggregation:
  trip:
    circuit_breaker:
      window_size: 10
      failure_rate_threshold: 0.5
      minimum_calls: 10
      open_state_duration: 30s
      half_open_probes: 3
    retry:
      max_attempts: 3
      initial_interval: 100ms
      max_interval: 5s
      multiplier: 2.0
`

func TestLoadParsesServerTimeoutsAsSeconds(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	// Plain second counts, not durations: "30" means 30 seconds.
	assert.Equal(t, 30, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, 45, cfg.Server.WriteTimeoutSeconds)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Server.ReadTimeoutSeconds)*time.Second)
}

func TestLoadParsesResilienceDurations(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Aggregation.Trip.CircuitBreaker.OpenStateDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.Aggregation.Trip.Retry.InitialInterval)
	assert.Equal(t, 5*time.Second, cfg.Aggregation.Trip.Retry.MaxInterval)
	assert.Equal(t, 3, cfg.Aggregation.Trip.Retry.MaxAttempts)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultMongoDBName, cfg.Database.MongoDB.Database)
	assert.Equal(t, constants.DefaultAggregationTopic, cfg.Broker.Kafka.AggregationTopic)
	assert.Equal(t, constants.DefaultRetryTopic, cfg.Broker.Kafka.RetryTopic)
	assert.Equal(t, constants.DefaultCheckedBaggageWeight, cfg.Aggregation.DefaultBaggage.CheckedWeight)
	assert.Equal(t, constants.DefaultCabinBaggageWeight, cfg.Aggregation.DefaultBaggage.CarryOnWeight)
	assert.Equal(t, constants.DefaultBaggageUnit, cfg.Aggregation.DefaultBaggage.Unit)
}

func TestLoadRejectsMissingMongoURI(t *testing.T) {
	content := `
server:
  port: 8080
database:
  redis:
    host: localhost
logging:
  level: info
`
	_, err := Load(writeConfigFile(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongodb uri is required")
}
