package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Auth        AuthConfig        `yaml:"auth"`
	Cron        CronConfig        `yaml:"cron"`
	Redis       RedisConfig       `yaml:"redis"`
	R2          R2Config          `yaml:"r2"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Logger      LoggerConfig      `yaml:"logger"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig holds the hosted backend's keys. ServiceRoleKey is server-only and
// must never be serialized into a client response.
type AuthConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	ServiceRoleKey string `yaml:"service_role_key"`
	JWTSecret      string `yaml:"jwt_secret"`
}

type CronConfig struct {
	Secret string `yaml:"secret"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type R2Config struct {
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	AccessKeySecret string `yaml:"access_key_secret"`
	Bucket          string `yaml:"bucket"`
	CDNBaseURL      string `yaml:"cdn_base_url"`
}

// Enabled reports whether thumbnail uploads can be served.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.Bucket != ""
}

type LeaderboardConfig struct {
	FallbackFile    string `yaml:"fallback_file"`
	FallbackMaxKeep int    `yaml:"fallback_max_keep"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when neither file nor env sets a value.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           ":5200",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Leaderboard: LeaderboardConfig{FallbackMaxKeep: 200},
		Logger:      LoggerConfig{Level: "info"},
		Scheduler:   SchedulerConfig{Enabled: true},
		Metrics:     MetricsConfig{Enabled: true},
	}
}

// Load reads .env (if any), then the YAML file (if any), then applies
// environment overrides. A missing YAML file is not an error.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Auth.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Auth.AnonKey = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" {
		cfg.Auth.ServiceRoleKey = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CRON_SECRET"); v != "" {
		cfg.Cron.Secret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); v != "" {
		cfg.R2.AccountID = v
	}
	if v := os.Getenv("R2_ACCESS_KEY_ID"); v != "" {
		cfg.R2.AccessKeyID = v
	}
	if v := os.Getenv("R2_ACCESS_KEY_SECRET"); v != "" {
		cfg.R2.AccessKeySecret = v
	}
	if v := os.Getenv("R2_BUCKET_NAME"); v != "" {
		cfg.R2.Bucket = v
	}
	if v := os.Getenv("CDN_BASE_URL"); v != "" {
		cfg.R2.CDNBaseURL = v
	}
	if v := os.Getenv("LEADERBOARD_FALLBACK_FILE"); v != "" {
		cfg.Leaderboard.FallbackFile = v
	}
	if v := os.Getenv("LEADERBOARD_FALLBACK_MAX_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Leaderboard.FallbackMaxKeep = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logger.File = v
	}
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		cfg.Scheduler.Enabled = v == "true"
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
}

// HasBackend reports whether the relational backend is configured. Without it
// only the degraded leaderboard path is served.
func (c *Config) HasBackend() bool {
	return strings.TrimSpace(c.Postgres.DSN) != ""
}

// Validate checks combinations that would make the server unusable.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr must not be empty")
	}
	if c.HasBackend() && c.Auth.JWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET is required when DATABASE_URL is set")
	}
	if c.Leaderboard.FallbackMaxKeep <= 0 {
		return errors.New("leaderboard.fallback_max_keep must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
