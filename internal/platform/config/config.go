package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"staywatch/internal/engine"
)

// Server captures process-level configuration. Values come from the
// environment with development defaults so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the postgres stores when set; empty keeps the
	// in-memory stores (development, tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	Policy              engine.Policy
	ForecastHorizonDays int

	DaySetCacheTTL time.Duration
}

// RedisConfig carries connection settings for the day-set cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries audit publisher settings. Empty brokers disable
// Kafka publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	policy := engine.DefaultPolicy()
	policy.LimitDays = envInt("STAYWATCH_LIMIT_DAYS", policy.LimitDays)
	policy.WindowDays = envInt("STAYWATCH_WINDOW_DAYS", policy.WindowDays)
	policy.SafeThresholdDaysRemaining = envInt("STAYWATCH_SAFE_THRESHOLD", policy.SafeThresholdDaysRemaining)
	policy.CautionThresholdDaysRemaining = envInt("STAYWATCH_CAUTION_THRESHOLD", policy.CautionThresholdDaysRemaining)

	cfg := Server{
		Addr:                envString("STAYWATCH_ADDR", ":8080"),
		JWTSigningKey:       envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		Policy:              policy,
		ForecastHorizonDays: envInt("STAYWATCH_FORECAST_HORIZON_DAYS", 2*policy.WindowDays),
		DaySetCacheTTL:      envDuration("STAYWATCH_DAYSET_CACHE_TTL", 15*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envString("KAFKA_AUDIT_TOPIC", "staywatch.audit"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
