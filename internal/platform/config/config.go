// Package config loads server configuration from SENTRY_* environment
// variables so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	LogLevel      string
	LogFormat     string
	JWTSigningKey string
	JWTIssuer     string

	Probes   ProbeConfig
	Registry RegistryConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Limits   LimitConfig
}

// ProbeConfig points the network probes at their upstreams.
type ProbeConfig struct {
	GeoBaseURL       string
	DoHBaseURL       string
	NPIBaseURL       string
	SovereignCountry string
	LookupTimeout    time.Duration
	FetchTimeout     time.Duration
	VocabFile        string
}

// RegistryConfig selects the registry backend. Postgres wins over Redis; with
// neither configured records are kept in memory.
type RegistryConfig struct {
	DatabaseURL string
	RedisTTL    time.Duration
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables scan event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LimitConfig throttles the scan endpoints.
type LimitConfig struct {
	ScanRate      float64
	ScanBurst     int
	BulkScanDelay time.Duration
	Disabled      bool
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          getEnv("SENTRY_ADDR", ":8080"),
		LogLevel:      getEnv("SENTRY_LOG_LEVEL", "info"),
		LogFormat:     getEnv("SENTRY_LOG_FORMAT", "json"),
		JWTSigningKey: os.Getenv("SENTRY_JWT_SIGNING_KEY"),
		JWTIssuer:     getEnv("SENTRY_JWT_ISSUER", "sentry"),
		Probes: ProbeConfig{
			GeoBaseURL:       getEnv("SENTRY_GEO_BASE_URL", "http://ip-api.com"),
			DoHBaseURL:       getEnv("SENTRY_DOH_BASE_URL", "https://dns.google"),
			NPIBaseURL:       getEnv("SENTRY_NPI_BASE_URL", "https://npiregistry.cms.hhs.gov"),
			SovereignCountry: getEnv("SENTRY_SOVEREIGN_COUNTRY", "US"),
			LookupTimeout:    getDuration("SENTRY_LOOKUP_TIMEOUT", 5*time.Second),
			FetchTimeout:     getDuration("SENTRY_FETCH_TIMEOUT", 15*time.Second),
			VocabFile:        os.Getenv("SENTRY_VOCAB_FILE"),
		},
		Registry: RegistryConfig{
			DatabaseURL: os.Getenv("SENTRY_DATABASE_URL"),
			RedisTTL:    getDuration("SENTRY_REGISTRY_TTL", 0),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SENTRY_REDIS_URL"),
			PoolSize:     getInt("SENTRY_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("SENTRY_REDIS_MIN_IDLE", 2),
			DialTimeout:  getDuration("SENTRY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("SENTRY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("SENTRY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("SENTRY_KAFKA_BROKERS")),
			Topic:   getEnv("SENTRY_KAFKA_TOPIC", "sentry.scans"),
		},
		Limits: LimitConfig{
			ScanRate:      getFloat("SENTRY_SCAN_RATE", 1),
			ScanBurst:     getInt("SENTRY_SCAN_BURST", 5),
			BulkScanDelay: getDuration("SENTRY_BULK_SCAN_DELAY", 2500*time.Millisecond),
			Disabled:      getBool("SENTRY_RATE_LIMIT_DISABLED", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d >= 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
