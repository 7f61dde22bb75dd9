package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Addr               string        `koanf:"addr"`
	DatabaseURL        string        `koanf:"database_url"`
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenTTL           time.Duration `koanf:"token_ttl"`
	Environment        string        `koanf:"env"`
	LogLevel           string        `koanf:"log_level"`
	SeedTenantName     string        `koanf:"seed_tenant_name"`
	SeedAdminEmail     string        `koanf:"seed_admin_email"`
	SeedAdminPassword  string        `koanf:"seed_admin_password"`
	SeedAdminName      string        `koanf:"seed_admin_name"`
	EmailFrom          string        `koanf:"email_from"`
	EmailEnabled       bool          `koanf:"email_enabled"`
	SMTPHost           string        `koanf:"smtp_host"`
	SMTPPort           int           `koanf:"smtp_port"`
	SMTPUser           string        `koanf:"smtp_user"`
	SMTPPassword       string        `koanf:"smtp_password"`
	RunMigrations      bool          `koanf:"run_migrations"`
	RunSeed            bool          `koanf:"run_seed"`
	MaxBodyBytes       int64         `koanf:"max_body_bytes"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
	JobQueueSize       int           `koanf:"job_queue_size"`
	RecomputeInterval  time.Duration `koanf:"final_score_recompute_interval"`
	MetricsEnabled     bool          `koanf:"metrics_enabled"`
	RedisAddr          string        `koanf:"redis_addr"`
	RedisPassword      string        `koanf:"redis_password"`
	RedisDB            int           `koanf:"redis_db"`
	RankingCacheTTL    time.Duration `koanf:"ranking_cache_ttl"`
	ReportDir          string        `koanf:"report_dir"`
	ReportKey          string        `koanf:"report_encryption_key"`
}

func Default() Config {
	return Config{
		Addr:               ":8080",
		TokenTTL:           12 * time.Hour,
		Environment:        "development",
		LogLevel:           "info",
		SeedTenantName:     "Default Tenant",
		SeedAdminName:      "Administrator",
		EmailFrom:          "no-reply@example.com",
		SMTPPort:           587,
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 120,
		JobQueueSize:       128,
		RecomputeInterval:  0,
		MetricsEnabled:     true,
		RankingCacheTTL:    5 * time.Minute,
		ReportDir:          "storage/reports",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("SCORECARD_DATABASE_URL is required")
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("SCORECARD_ADDR must not be empty")
	}
	if c.Environment == "production" {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("SCORECARD_JWT_SECRET must be at least 32 characters in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SCORECARD_SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("SCORECARD_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("SCORECARD_TOKEN_TTL must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("SCORECARD_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("SCORECARD_MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("SCORECARD_RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("SCORECARD_JOB_QUEUE_SIZE must be positive")
	}
	if c.RecomputeInterval < 0 {
		return fmt.Errorf("SCORECARD_FINAL_SCORE_RECOMPUTE_INTERVAL must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SCORECARD_SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
