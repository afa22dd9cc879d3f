package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv            string
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	AutoMigrate       bool
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// Booking engine settings.
	TxTimeout                 time.Duration
	CodeMaxAttempts           int
	RestaurantSeatingDuration time.Duration
	SpaSessionDuration        time.Duration

	// Notification settings. An empty broker list disables the Kafka publisher.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PROD_ORIGINS", "")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("TX_TIMEOUT", "5s")
	v.SetDefault("CODE_MAX_ATTEMPTS", 5)
	v.SetDefault("RESTAURANT_SEATING_DURATION", "2h")
	v.SetDefault("SPA_SESSION_DURATION", "1h")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "booking.events")
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.IsProduction = cfg.AppEnv == PROD_STRING
	cfg.ProdOrigins = v.GetString("PROD_ORIGINS")
	cfg.HTTPAddr = v.GetString("HTTP_ADDR")

	// Schema auto-migration defaults to on outside production.
	if v.IsSet("AUTO_MIGRATE") {
		cfg.AutoMigrate = v.GetBool("AUTO_MIGRATE")
	} else {
		cfg.AutoMigrate = !cfg.IsProduction
	}

	// Database DSN is required
	cfg.DBDSN = v.GetString("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for verifying tokens
	cfg.JWTSecret = v.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.JWTAccessTokenTTL, err = getDuration(v, "JWT_ACCESS_TOKEN_TTL"); err != nil {
		return nil, err
	}
	if cfg.TxTimeout, err = getDuration(v, "TX_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.RestaurantSeatingDuration, err = getDuration(v, "RESTAURANT_SEATING_DURATION"); err != nil {
		return nil, err
	}
	if cfg.SpaSessionDuration, err = getDuration(v, "SPA_SESSION_DURATION"); err != nil {
		return nil, err
	}

	cfg.CodeMaxAttempts = v.GetInt("CODE_MAX_ATTEMPTS")
	if cfg.CodeMaxAttempts < 1 {
		return nil, fmt.Errorf("CODE_MAX_ATTEMPTS must be at least 1, got %d", cfg.CodeMaxAttempts)
	}

	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.KafkaTopic = v.GetString("KAFKA_TOPIC")

	return cfg, nil
}

// getDuration parses a duration setting (e.g. "15m", "1h") and rejects non-positive values.
func getDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %q", key, raw)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
