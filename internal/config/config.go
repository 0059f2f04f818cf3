package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "PROCUREMENT"

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Scoring ScoringConfig
}

type AppConfig struct {
	Env             string        `envconfig:"APP_ENV" default:"dev"`
	Address         string        `envconfig:"SERVER_ADDRESS" default:"0.0.0.0:8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type DBConfig struct {
	DSN             string        `envconfig:"POSTGRES_CONN" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// RedisConfig: пустой URL отключает кэш рейтингов.
type RedisConfig struct {
	URL        string        `envconfig:"REDIS_URL"`
	RankingTTL time.Duration `envconfig:"RANKING_CACHE_TTL" default:"15m"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type ScoringConfig struct {
	// Порог стоимости (ZAR) для перехода с 80/20 на 90/10.
	ScaleThreshold string `envconfig:"SCALE_THRESHOLD" default:"50000000"`
}

func (s ScoringConfig) Threshold() decimal.Decimal {
	v, err := decimal.NewFromString(s.ScaleThreshold)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Load читает конфигурацию из окружения. Ключи вида PROCUREMENT_APP_LOG_LEVEL,
// при их отсутствии используется короткое имя из тега (LOG_LEVEL, POSTGRES_CONN).
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.Scoring.ScaleThreshold); err != nil {
		return nil, fmt.Errorf("invalid %s_SCORING_SCALE_THRESHOLD %q: %w", EnvPrefix, cfg.Scoring.ScaleThreshold, err)
	}
	return &cfg, nil
}
