// Package config loads gophsync settings: defaults, then a YAML file, then
// GOPHSYNC_* environment variables. Command-line flags are applied by the
// binaries on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefix of environment overrides
const EnvPrefix = "GOPHSYNC_"

// ErrMissingSecret is returned when the server has no JWT secret
var ErrMissingSecret = errors.New("jwt secret is required")

// Config is the complete configuration of client and server
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Client   ClientConfig `yaml:"client"`
	LogLevel string       `yaml:"log_level"`
}

// ServerConfig настройки документного сервера
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	DSN             string        `yaml:"dsn"`        // backend документов, см. backend.Open
	JWTSecret       string        `yaml:"jwt_secret"` // секрет подписи HS256
	TokenTTL        time.Duration `yaml:"token_ttl"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	RateLimit       int           `yaml:"rate_limit"` // запросов на IP за окно; 0 = без ограничения
}

// ClientConfig настройки offline клиента
type ClientConfig struct {
	DBPath      string `yaml:"db_path"`
	ServerURL   string `yaml:"server_url"`
	Remote      string `yaml:"remote"`   // DSN удаленного хранилища; пусто = документный сервер ServerURL
	Strategy    string `yaml:"strategy"` // стратегия разрешения конфликтов
	SyncEnabled bool   `yaml:"sync_enabled"`
	PushDeleted bool   `yaml:"push_deleted"` // отправлять tombstones при full sync
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			DSN:             "sqlite://gophsync.db",
			TokenTTL:        24 * time.Hour,
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Client: ClientConfig{
			DBPath:      "gophsync-client.db",
			ServerURL:   "http://localhost:8080",
			Strategy:    "last-write-wins",
			SyncEnabled: true,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (optional)
// and the environment
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// applyEnv переопределяет значения из окружения
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERVER_ADDR":       &c.Server.Addr,
		"SERVER_DSN":        &c.Server.DSN,
		"JWT_SECRET":        &c.Server.JWTSecret,
		"CLIENT_DB":         &c.Client.DBPath,
		"SERVER_URL":        &c.Client.ServerURL,
		"REMOTE":            &c.Client.Remote,
		"CONFLICT_STRATEGY": &c.Client.Strategy,
		"LOG_LEVEL":         &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"TOKEN_TTL":         &c.Server.TokenTTL,
		"RATE_LIMIT_WINDOW": &c.Server.RateLimitWindow,
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.Server.RateLimit = n
	}

	bools := map[string]*bool{
		"SYNC_ENABLED": &c.Client.SyncEnabled,
		"PUSH_DELETED": &c.Client.PushDeleted,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	return nil
}

// ValidateServer checks the settings required to run the server
func (c *Config) ValidateServer() error {
	if c.Server.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Server.TokenTTL < 0 {
		return fmt.Errorf("token ttl must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

// Level returns the configured slog level, info for unknown values
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
