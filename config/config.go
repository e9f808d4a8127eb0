package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROOMGRID_STORE_BACKEND.
const EnvPrefix = "ROOMGRID"

// Config holds all configuration values.
type Config struct {
	Env      string         `mapstructure:"env"`
	Log      LogConfig      `mapstructure:"log"`
	Grid     GridConfig     `mapstructure:"grid"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Secret   SecretConfig   `mapstructure:"secret"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is an output path; empty means stderr.
	File string `mapstructure:"file"`
}

// GridConfig sizes the week grid. Cell heights are terminal rows per hour.
type GridConfig struct {
	FirstHour         int     `mapstructure:"first_hour"`
	EndHour           int     `mapstructure:"end_hour"`
	PointerCellHeight float64 `mapstructure:"pointer_cell_height"`
	TouchCellHeight   float64 `mapstructure:"touch_cell_height"`
	Touch             bool    `mapstructure:"touch"`
}

type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type SecretConfig struct {
	AttemptsPerMinute int `mapstructure:"attempts_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type CleanupConfig struct {
	Schedule string `mapstructure:"schedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("grid.first_hour", 7)
	v.SetDefault("grid.end_hour", 21)
	v.SetDefault("grid.pointer_cell_height", 2)
	v.SetDefault("grid.touch_cell_height", 4)
	v.SetDefault("grid.touch", false)
	v.SetDefault("refresh.interval", "5s")
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "roomgrid")
	v.SetDefault("secret.attempts_per_minute", 5)
	v.SetDefault("secret.burst", 3)
	v.SetDefault("cleanup.schedule", "@hourly")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in ".", "./config" and "$HOME/.roomgrid" and a
// missing file falls back to defaults and environment variables.
func Load(path string) (Config, error) {
	// A .env file is optional.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".roomgrid"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the grid cannot render.
func (c Config) Validate() error {
	g := c.Grid
	if g.FirstHour < 0 || g.EndHour > 24 || g.FirstHour >= g.EndHour {
		return fmt.Errorf("grid hours %d..%d are not a valid range", g.FirstHour, g.EndHour)
	}
	if g.PointerCellHeight <= 0 || g.TouchCellHeight <= 0 {
		return errors.New("grid cell heights must be positive")
	}
	if c.Refresh.Interval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	return nil
}

// IsProduction reports whether the production logging profile applies.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
