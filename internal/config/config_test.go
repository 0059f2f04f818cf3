package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://localhost/procurement?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.App.Address)
	require.True(t, cfg.App.IsDev())
	require.Equal(t, 15*time.Minute, cfg.Redis.RankingTTL)
	require.False(t, cfg.Redis.Enabled())
	require.True(t, decimal.NewFromInt(50_000_000).Equal(cfg.Scoring.Threshold()))
}

func TestLoadPrefixedKeys(t *testing.T) {
	t.Setenv("PROCUREMENT_DB_POSTGRES_CONN", "postgres://db/procurement")
	t.Setenv("PROCUREMENT_REDIS_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PROCUREMENT_SCORING_SCALE_THRESHOLD", "1000000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres://db/procurement", cfg.DB.DSN)
	require.True(t, cfg.Redis.Enabled())
	require.True(t, decimal.NewFromInt(1_000_000).Equal(cfg.Scoring.Threshold()))
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://localhost/procurement")
	t.Setenv("SCALE_THRESHOLD", "fifty million")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "PROCUREMENT_SCORING_SCALE_THRESHOLD")
}
