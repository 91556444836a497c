package utils

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Stripe    StripeConfig
	Booking   BookingConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	Storage string // "postgres" or "memory"

	// Seeded into memory storage at startup; ignored for postgres.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type StripeConfig struct {
	WebhookSecret  string
	WebhookSecrets map[string]string // tenant slug -> endpoint secret
	Tolerance      time.Duration
}

type BookingConfig struct {
	LockTimeout       time.Duration
	TxTimeout         time.Duration
	PendingLease      time.Duration // PENDING ledger rows older than this may be reclaimed
	MinCommissionRate decimal.Decimal
	MaxCommissionRate decimal.Decimal
}

type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	TenantTTL time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// TracingConfig is disabled while Endpoint is empty.
type TracingConfig struct {
	Endpoint    string
	Environment string
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "wedding-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("STORAGE", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_EXPIRY_HOURS", 12)
	v.SetDefault("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300)
	v.SetDefault("BOOKING_LOCK_TIMEOUT_MS", 500)
	v.SetDefault("BOOKING_TX_TIMEOUT_MS", 5000)
	v.SetDefault("WEBHOOK_PENDING_LEASE_SECONDS", 30)
	v.SetDefault("COMMISSION_MIN_RATE", "0.5")
	v.SetDefault("COMMISSION_MAX_RATE", "50")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "booking-events")
	v.SetDefault("TENANT_CACHE_TTL_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("APP_ENV", "dev")

	// .env is optional; the environment always wins.
	if _, err := os.Stat(".env"); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	v.AutomaticEnv()

	minRate, err := decimal.NewFromString(v.GetString("COMMISSION_MIN_RATE"))
	if err != nil {
		return nil, err
	}
	maxRate, err := decimal.NewFromString(v.GetString("COMMISSION_MAX_RATE"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
			Storage: v.GetString("STORAGE"),

			BootstrapAdminEmail:    v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapAdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Stripe: StripeConfig{
			WebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
			WebhookSecrets: ParseKeyValueList(v.GetString("STRIPE_WEBHOOK_SECRETS")),
			Tolerance:      time.Duration(v.GetInt("STRIPE_WEBHOOK_TOLERANCE_SECONDS")) * time.Second,
		},
		Booking: BookingConfig{
			LockTimeout:       time.Duration(v.GetInt("BOOKING_LOCK_TIMEOUT_MS")) * time.Millisecond,
			TxTimeout:         time.Duration(v.GetInt("BOOKING_TX_TIMEOUT_MS")) * time.Millisecond,
			PendingLease:      time.Duration(v.GetInt("WEBHOOK_PENDING_LEASE_SECONDS")) * time.Second,
			MinCommissionRate: minRate,
			MaxCommissionRate: maxRate,
		},
		Kafka: KafkaConfig{
			Brokers:      ParseList(v.GetString("KAFKA_BROKERS")),
			BookingTopic: v.GetString("KAFKA_BOOKING_TOPIC"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			TenantTTL: time.Duration(v.GetInt("TENANT_CACHE_TTL_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Environment: v.GetString("APP_ENV"),
		},
	}

	return config, nil
}

// ParseList splits a comma separated value, dropping blanks.
func ParseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseKeyValueList parses "a=1,b=2".
func ParseKeyValueList(value string) map[string]string {
	out := make(map[string]string)
	for _, pair := range ParseList(value) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if key != "" && val != "" {
			out[key] = val
		}
	}
	return out
}
