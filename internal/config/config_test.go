package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validKey = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PASETO_KEY", validKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.True(t, cfg.Server.IsDevelopment())
	require.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.SessionDuration)
	require.Equal(t, 24*time.Hour, cfg.Auth.AdminTokenDuration)

	// Dev defaults: debug fields on, permissive delivery
	require.True(t, cfg.Auth.ExposeDebugFields)
	require.Equal(t, DeliveryPermissive, cfg.Email.DeliveryMode)
}

func TestLoad_RejectsBadPasetoKey(t *testing.T) {
	t.Setenv("PASETO_KEY", "short")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PASETO_KEY")
}

func TestLoad_ProductionDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")

	cfg, err := Load()
	require.NoError(t, err)

	require.False(t, cfg.Server.IsDevelopment())
	require.False(t, cfg.Auth.ExposeDebugFields)
	require.Equal(t, DeliveryStrict, cfg.Email.DeliveryMode)
}

func TestLoad_ExplicitDeliveryModeWins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("EMAIL_DELIVERY_MODE", "permissive")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DeliveryPermissive, cfg.Email.DeliveryMode)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "sentriom",
		SSLMode:  "disable",
	}

	s := cfg.ConnectionString()
	require.Contains(t, s, "host=localhost")
	require.Contains(t, s, "dbname=sentriom")
	require.Contains(t, s, "sslmode=disable")
}
