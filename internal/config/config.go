// Package config loads voicematchd's configuration from environment
// variables (optionally preloaded from a local .env file), mirroring the
// teacher's cmd/server/main.go, which reads everything through
// github.com/spf13/viper before constructing its dependencies.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete set of knobs voicematchd's subcommands need.
type Config struct {
	// BotToken authenticates outbound calls to the chat platform's Bot API.
	BotToken string

	// HTTPAddr is the webhook/admin HTTP listen address.
	HTTPAddr string

	// DatabaseURL is the Postgres DSN used by internal/store.
	DatabaseURL string
	// AdvisoryLockKey gates the single-writer assumption (spec.md §5/§7):
	// only the process holding this Postgres advisory lock runs the
	// scheduler driver.
	AdvisoryLockKey int64

	// RedisAddr backs internal/cache's read-through cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KafkaBrokers, if non-empty, enables the event-log fan-out described
	// in spec.md §6; a nil/empty slice disables Kafka entirely.
	KafkaBrokers []string
	KafkaTopic   string

	// WorkerPoolSize bounds the outbound dispatcher's concurrency, default
	// 4, mirroring the teacher's hub.runWithWorkers(4).
	WorkerPoolSize int

	// InboundRateLimit and InboundRateBurst configure the per-remote-address
	// token bucket guarding the webhook endpoint.
	InboundRateLimit float64
	InboundRateBurst int

	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string
	// LogFilePath, if set, enables lumberjack rotation in addition to
	// stderr; empty disables file logging.
	LogFilePath string

	// MetricsAddr is read from the environment but not used by serve,
	// which always serves /metrics on HTTPAddr.
	MetricsAddr string

	// AdminAllowedOrigins lists the CORS origins permitted to open the
	// /admin/live websocket feed.
	AdminAllowedOrigins []string

	// ShutdownTimeout bounds graceful shutdown of the HTTP server once the
	// errgroup-coordinated subsystems are cancelled.
	ShutdownTimeout time.Duration
}

// Load reads configuration the way the teacher's cmd/server/main.go does:
// an optional .env file loaded first (ignored if absent, since production
// deploys set real environment variables), then github.com/spf13/viper
// bound to the process environment with VOICEMATCH_-prefixed keys.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VOICEMATCH")
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("advisory_lock_key", int64(7726))
	v.SetDefault("redis_db", 0)
	v.SetDefault("kafka_topic", "voicematch.events")
	v.SetDefault("worker_pool_size", 4)
	v.SetDefault("inbound_rate_limit", 5.0)
	v.SetDefault("inbound_rate_burst", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	cfg := &Config{
		BotToken:            v.GetString("bot_token"),
		HTTPAddr:            v.GetString("http_addr"),
		DatabaseURL:         v.GetString("database_url"),
		AdvisoryLockKey:     v.GetInt64("advisory_lock_key"),
		RedisAddr:           v.GetString("redis_addr"),
		RedisPassword:       v.GetString("redis_password"),
		RedisDB:             v.GetInt("redis_db"),
		KafkaBrokers:        v.GetStringSlice("kafka_brokers"),
		KafkaTopic:          v.GetString("kafka_topic"),
		WorkerPoolSize:      v.GetInt("worker_pool_size"),
		InboundRateLimit:    v.GetFloat64("inbound_rate_limit"),
		InboundRateBurst:    v.GetInt("inbound_rate_burst"),
		LogLevel:            v.GetString("log_level"),
		LogFilePath:         v.GetString("log_file_path"),
		MetricsAddr:         v.GetString("metrics_addr"),
		ShutdownTimeout:     v.GetDuration("shutdown_timeout"),
		AdminAllowedOrigins: v.GetStringSlice("admin_allowed_origins"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config: VOICEMATCH_BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: VOICEMATCH_DATABASE_URL is required")
	}

	return cfg, nil
}
