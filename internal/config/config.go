package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendLevelDB  = "leveldb"
)

type Config struct {
	Log     LoggingConfig `yaml:"log"`
	State   StateConfig   `yaml:"state"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StateConfig struct {
	Backend     string         `yaml:"backend"`
	SQLitePath  string         `yaml:"sqlite_path"`
	LevelDBPath string         `yaml:"leveldb_path"`
	Postgres    PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ChainID         int64         `yaml:"chain_id"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled == nil || *m.Enabled
}

type EventsConfig struct {
	Enabled    *bool  `yaml:"enabled"`
	Path       string `yaml:"path"`
	BufferSize int    `yaml:"buffer_size"`
}

func (e EventsConfig) EnabledValue() bool {
	return e.Enabled == nil || *e.Enabled
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if cfg.State.Backend == "" {
		cfg.State.Backend = BackendSQLite
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/scoria.db"
	}
	if cfg.State.Postgres.Schema == "" {
		cfg.State.Postgres.Schema = "public"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.ChainID == 0 {
		cfg.Server.ChainID = 1337
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Events.Enabled == nil {
		enabled := true
		cfg.Events.Enabled = &enabled
	}
	if cfg.Events.Path == "" {
		cfg.Events.Path = "/events"
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 64
	}
}

func validate(cfg *Config) error {
	switch cfg.State.Backend {
	case BackendSQLite, BackendLevelDB:
	case BackendPostgres:
		if strings.TrimSpace(cfg.State.Postgres.DSN) == "" {
			return errors.New("state.postgres.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown state.backend %q", cfg.State.Backend)
	}
	if cfg.Server.ChainID <= 0 {
		return errors.New("server.chain_id must be > 0")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must be >= 0")
	}
	if cfg.Events.BufferSize < 0 {
		return errors.New("events.buffer_size must be >= 0")
	}
	if cfg.Metrics.EnabledValue() && cfg.Events.EnabledValue() && cfg.Metrics.Path == cfg.Events.Path {
		return errors.New("metrics.path and events.path must differ")
	}
	return nil
}
