package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := newViper()
	v.Set("DB_DSN", "postgres://localhost/test")
	v.Set("JWT_SECRET", "secret")
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(baseViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.IsProduction)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.Equal(t, 5, cfg.CodeMaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.RestaurantSeatingDuration)
	assert.Equal(t, time.Hour, cfg.SpaSessionDuration)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "booking.events", cfg.KafkaTopic)
}

func TestFromViperOverrides(t *testing.T) {
	v := baseViper()
	v.Set("APP_ENV", "prod")
	v.Set("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	v.Set("TX_TIMEOUT", "750ms")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.TxTimeout)
}

func TestFromViperErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(v *viper.Viper)
	}{
		{"missing dsn", func(v *viper.Viper) { v.Set("DB_DSN", "") }},
		{"missing secret", func(v *viper.Viper) { v.Set("JWT_SECRET", "") }},
		{"bad duration", func(v *viper.Viper) { v.Set("TX_TIMEOUT", "soon") }},
		{"negative duration", func(v *viper.Viper) { v.Set("SPA_SESSION_DURATION", "-1h") }},
		{"zero attempts", func(v *viper.Viper) { v.Set("CODE_MAX_ATTEMPTS", 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseViper()
			tt.mod(v)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}
