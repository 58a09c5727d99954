package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Replay ledger backends.
const (
	ReplayBackendPostgres = "postgres"
	ReplayBackendRedis    = "redis"
	ReplayBackendMemory   = "memory"
)

// Server captures everything the service reads at start.
type Server struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	DatabaseURL string      `yaml:"database_url"`
	Redis       RedisConfig `yaml:"redis"`
	Kafka       KafkaConfig `yaml:"kafka"`

	Webhook   WebhookConfig `yaml:"webhook"`
	Retention Retention     `yaml:"retention"`

	// ReplayBackend selects the processed-event ledger. Empty picks postgres
	// when DatabaseURL is set and memory otherwise.
	ReplayBackend string `yaml:"replay_backend"`

	// DefaultRegion drives local phone expansion ("BR").
	DefaultRegion string `yaml:"default_region"`

	// OrderHistoryBackend names the pluggable order-history source. Opaque here.
	OrderHistoryBackend string `yaml:"order_history_backend"`

	JWTSigningKey string `yaml:"jwt_signing_key"`
	JWTIssuer     string `yaml:"jwt_issuer"`
}

// RedisConfig holds connection and pool settings.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig enables the customer event producer when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WebhookConfig holds provider webhook verification settings.
type WebhookConfig struct {
	// Secret verifies signatures. Empty means dev mode: every request passes.
	Secret string        `yaml:"secret"`
	MaxAge time.Duration `yaml:"max_age"`
}

// Retention governs processed-event cleanup.
type Retention struct {
	EventDays       int           `yaml:"event_days"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Server {
	return Server{
		Addr:     ":8080",
		LogLevel: "info",
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: "guestman.customer-events",
		},
		Webhook: WebhookConfig{
			MaxAge: 300 * time.Second,
		},
		Retention: Retention{
			EventDays:       90,
			CleanupInterval: time.Hour,
		},
		DefaultRegion: "BR",
		JWTIssuer:     "guestman",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// GUESTMAN_CONFIG (if any), then environment variables. A .env file in the
// working directory is loaded first without overriding real env vars.
func Load() (Server, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("GUESTMAN_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Server{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Server{}, err
	}
	cfg.resolveReplayBackend()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Server) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Server) error {
	setString(&cfg.Addr, "GUESTMAN_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.ReplayBackend, "REPLAY_BACKEND")
	setString(&cfg.DefaultRegion, "DEFAULT_REGION")
	setString(&cfg.OrderHistoryBackend, "ORDER_HISTORY_BACKEND")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.JWTIssuer, "JWT_ISSUER")

	// WEBHOOK_SECRET is read even when set to "" so an env override can
	// deliberately switch a file-configured secret off.
	if v, ok := os.LookupEnv("WEBHOOK_SECRET"); ok {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.Retention.EventDays, "EVENT_RETENTION_DAYS"},
		{&cfg.Redis.PoolSize, "REDIS_POOL_SIZE"},
		{&cfg.Redis.MinIdleConns, "REDIS_MIN_IDLE_CONNS"},
	}
	for _, i := range ints {
		if err := setInt(i.dst, i.key); err != nil {
			return err
		}
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.Webhook.MaxAge, "WEBHOOK_MAX_AGE"},
		{&cfg.Retention.CleanupInterval, "CLEANUP_INTERVAL"},
		{&cfg.Redis.DialTimeout, "REDIS_DIAL_TIMEOUT"},
		{&cfg.Redis.ReadTimeout, "REDIS_READ_TIMEOUT"},
		{&cfg.Redis.WriteTimeout, "REDIS_WRITE_TIMEOUT"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	return nil
}

func (c *Server) resolveReplayBackend() {
	if c.ReplayBackend != "" {
		c.ReplayBackend = strings.ToLower(c.ReplayBackend)
		return
	}
	if c.DatabaseURL != "" {
		c.ReplayBackend = ReplayBackendPostgres
		return
	}
	c.ReplayBackend = ReplayBackendMemory
}

// Validate rejects combinations the service cannot start with.
func (c Server) Validate() error {
	switch c.ReplayBackend {
	case ReplayBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("replay backend postgres requires DATABASE_URL")
		}
	case ReplayBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("replay backend redis requires REDIS_URL")
		}
	case ReplayBackendMemory:
	default:
		return fmt.Errorf("unknown replay backend %q", c.ReplayBackend)
	}
	if c.Retention.EventDays < 1 {
		return fmt.Errorf("EVENT_RETENTION_DAYS must be at least 1")
	}
	if c.Webhook.MaxAge <= 0 {
		return fmt.Errorf("WEBHOOK_MAX_AGE must be positive")
	}
	return nil
}

// DevMode reports whether webhook signatures are not being checked.
func (c Server) DevMode() bool {
	return c.Webhook.Secret == ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// setDuration accepts Go durations ("90s") or bare seconds ("300").
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
