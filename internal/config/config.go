// Package config provides Viper-based configuration loading for the mafia
// game server and its bot client.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/partygames/mafia/internal/game/mafia"
)

// Stats driver names.
const (
	StatsDriverNone     = "none"
	StatsDriverSQLite   = "sqlite"
	StatsDriverPostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameServerConfig holds the game server's listener and orchestration settings.
type GameServerConfig struct {
	// GRPCHost is the bind address for the GameService.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the GameService.
	GRPCPort int `mapstructure:"grpc_port"`
	// TickInterval is the period of the orchestrator's reconciliation tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// StartCooldown is the minimum time between two start-gate evaluations.
	StartCooldown time.Duration `mapstructure:"start_cooldown"`
	// RPCTimeout bounds every server to client call.
	RPCTimeout time.Duration `mapstructure:"rpc_timeout"`
	// GameCapacity is the number of seats in each new game.
	GameCapacity int `mapstructure:"game_capacity"`
	// OutboxSize is the per-client delivery buffer.
	OutboxSize int `mapstructure:"outbox_size"`
	// ProbeConcurrency caps the number of liveness probes in flight.
	ProbeConcurrency int `mapstructure:"probe_concurrency"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// StatsConfig selects the player statistics backend.
type StatsConfig struct {
	// Driver is one of "none", "sqlite", "postgres".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ClientConfig holds bot client settings.
type ClientConfig struct {
	// Host is the address the client's PlayerService binds and advertises.
	Host string `mapstructure:"host"`
	// Port is the TCP port of the client's PlayerService. 0 picks a free port.
	Port int `mapstructure:"port"`
	// Name is the display name to register; empty generates one.
	Name string `mapstructure:"name"`
	// ServerAddr is the "host:port" of the game server.
	ServerAddr string `mapstructure:"server_addr"`
	// ActionInterval is how often the bot acts on its latest prompt.
	ActionInterval time.Duration `mapstructure:"action_interval"`
	// RegisterTimeout bounds Register and every later call to the server.
	RegisterTimeout time.Duration `mapstructure:"register_timeout"`
}

// Addr returns the "host:port" the client listens on.
func (c ClientConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Client     ClientConfig     `mapstructure:"client"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the postgres stats driver is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameServer(c.GameServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStats(c.Stats); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Stats.Driver == StatsDriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateClient(c.Client); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("gameserver.tick_interval must be > 0, got %s", g.TickInterval))
	}
	if g.StartCooldown < 0 {
		errs = append(errs, fmt.Sprintf("gameserver.start_cooldown must be >= 0, got %s", g.StartCooldown))
	}
	if g.RPCTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("gameserver.rpc_timeout must be > 0, got %s", g.RPCTimeout))
	}
	if _, ok := mafia.RoleTable[g.GameCapacity]; !ok {
		errs = append(errs, fmt.Sprintf("gameserver.game_capacity must be one of %v, got %d", mafia.SupportedCapacities(), g.GameCapacity))
	}
	if g.OutboxSize < 1 {
		errs = append(errs, fmt.Sprintf("gameserver.outbox_size must be >= 1, got %d", g.OutboxSize))
	}
	if g.ProbeConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("gameserver.probe_concurrency must be >= 1, got %d", g.ProbeConcurrency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStats(s StatsConfig) error {
	switch s.Driver {
	case StatsDriverNone, StatsDriverPostgres:
		return nil
	case StatsDriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("stats.sqlite_path must not be empty when stats.driver is sqlite")
		}
		return nil
	}
	return fmt.Errorf("stats.driver must be one of [none, sqlite, postgres], got %q", s.Driver)
}

func validateClient(c ClientConfig) error {
	var errs []string
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("client.port must be 0-65535, got %d", c.Port))
	}
	if c.ServerAddr == "" {
		errs = append(errs, "client.server_addr must not be empty")
	}
	if c.ActionInterval <= 0 {
		errs = append(errs, fmt.Sprintf("client.action_interval must be > 0, got %s", c.ActionInterval))
	}
	if c.RegisterTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("client.register_timeout must be > 0, got %s", c.RegisterTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults and
// environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with MAFIA_ prefix
	v.SetEnvPrefix("MAFIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mafia")
	v.SetDefault("database.password", "mafia")
	v.SetDefault("database.name", "mafia")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)
	v.SetDefault("gameserver.tick_interval", "4s")
	v.SetDefault("gameserver.start_cooldown", "20s")
	v.SetDefault("gameserver.rpc_timeout", "1s")
	v.SetDefault("gameserver.game_capacity", mafia.DefaultCapacity)
	v.SetDefault("gameserver.outbox_size", 64)
	v.SetDefault("gameserver.probe_concurrency", 16)

	v.SetDefault("stats.driver", StatsDriverNone)
	v.SetDefault("stats.sqlite_path", "mafia.db")

	v.SetDefault("client.host", "127.0.0.1")
	v.SetDefault("client.port", 0)
	v.SetDefault("client.name", "")
	v.SetDefault("client.server_addr", "127.0.0.1:50051")
	v.SetDefault("client.action_interval", "2s")
	v.SetDefault("client.register_timeout", "1s")
}
