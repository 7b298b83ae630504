package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soaringjerry/Pulse/internal/utils"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	JWT      JWTConfig
	Scoring  ScoringConfig
}

type ServerConfig struct {
	Addr        string
	StaticDir   string
	CORSOrigins []string
}

type LogConfig struct {
	Mode string
}

type DatabaseConfig struct {
	Driver        string
	DSN           string
	Seed          bool
	MigrationsDir string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL time.Duration
}

type JWTConfig struct {
	Secret string
}

// ReverseRule lists the 1-based question positions that are reverse scored
// for one assessment code, and the upper bound of its answer scale.
type ReverseRule struct {
	Positions []int `mapstructure:"positions"`
	ScaleMax  int   `mapstructure:"scale_max"`
}

type ScoringConfig struct {
	ReverseRules map[string]ReverseRule
}

// Load reads configuration from the optional file named by PULSE_CONFIG,
// then PULSE_* environment variables, then defaults.
func Load() (*Config, error) {
	return LoadFrom(utils.SafeEnv("PULSE_CONFIG", ""))
}

// LoadFrom is Load with an explicit config file path ("" skips the file).
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.mode", "dev")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:pulse.db?_busy_timeout=5000")
	v.SetDefault("database.seed", true)
	v.SetDefault("database.migrations_dir", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("jwt.secret", "pulse-dev-secret")
	v.SetDefault("scoring.reverse_rules", map[string]any{
		"RELATIONSHIP": map[string]any{"positions": []int{4, 7}, "scale_max": 5},
	})

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			StaticDir:   v.GetString("server.static_dir"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Log: LogConfig{Mode: v.GetString("log.mode")},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("database.driver")),
			DSN:           v.GetString("database.dsn"),
			Seed:          v.GetBool("database.seed"),
			MigrationsDir: v.GetString("database.migrations_dir"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Session: SessionConfig{TTL: v.GetDuration("session.ttl")},
		JWT:     JWTConfig{Secret: v.GetString("jwt.secret")},
	}

	rules := map[string]ReverseRule{}
	if err := v.UnmarshalKey("scoring.reverse_rules", &rules); err != nil {
		return nil, fmt.Errorf("decode scoring.reverse_rules: %w", err)
	}
	// viper lower-cases map keys; assessment codes are upper case.
	cfg.Scoring.ReverseRules = make(map[string]ReverseRule, len(rules))
	for code, rule := range rules {
		cfg.Scoring.ReverseRules[strings.ToUpper(code)] = rule
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Session.TTL <= 0 {
		return nil, errors.New("session.ttl must be positive")
	}
	return cfg, nil
}
