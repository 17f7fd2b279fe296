package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "US", cfg.Probes.SovereignCountry)
	assert.Equal(t, 5*time.Second, cfg.Probes.LookupTimeout)
	assert.Equal(t, 15*time.Second, cfg.Probes.FetchTimeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "sentry.scans", cfg.Kafka.Topic)
	assert.Equal(t, 2500*time.Millisecond, cfg.Limits.BulkScanDelay)
	assert.Empty(t, cfg.JWTSigningKey)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SENTRY_ADDR", ":9090")
	t.Setenv("SENTRY_LOOKUP_TIMEOUT", "2s")
	t.Setenv("SENTRY_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("SENTRY_SCAN_RATE", "0.5")
	t.Setenv("SENTRY_SCAN_BURST", "3")
	t.Setenv("SENTRY_RATE_LIMIT_DISABLED", "true")
	t.Setenv("SENTRY_REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.Probes.LookupTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 0.5, cfg.Limits.ScanRate)
	assert.Equal(t, 3, cfg.Limits.ScanBurst)
	assert.True(t, cfg.Limits.Disabled)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
