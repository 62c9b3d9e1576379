package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	DBMaxConns        int
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	BatchSize         int
	FlushThreshold    int
	WorkerConcurrency int
	MaxRetries        int
	JobSubject        string
	JobQueueGroup     string
	NotifySubject     string
	SummaryCacheTTL   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RESULTA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Resulta API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("compute.batch_size", 100)
	v.SetDefault("compute.flush_threshold", 100)
	v.SetDefault("compute.worker_concurrency", 4)
	v.SetDefault("compute.max_retries", 3)
	v.SetDefault("jobs.subject", "resulta.jobs.compute")
	v.SetDefault("jobs.queue_group", "resulta-computers")
	v.SetDefault("notify.subject", "resulta.notifications")
	v.SetDefault("summary.cache_ttl", "10m")

	ttlString := v.GetString("summary.cache_ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid summary cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		DBMaxConns:        v.GetInt("database.max_conns"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		BatchSize:         v.GetInt("compute.batch_size"),
		FlushThreshold:    v.GetInt("compute.flush_threshold"),
		WorkerConcurrency: v.GetInt("compute.worker_concurrency"),
		MaxRetries:        v.GetInt("compute.max_retries"),
		JobSubject:        v.GetString("jobs.subject"),
		JobQueueGroup:     v.GetString("jobs.queue_group"),
		NotifySubject:     v.GetString("notify.subject"),
		SummaryCacheTTL:   ttl,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	if cfg.FlushThreshold <= 0 {
		cfg.FlushThreshold = cfg.BatchSize
	}

	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 4
	}

	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return cfg, nil
}
