package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the insurance assistant
type Config struct {
	// HTTP transport
	Server ServerConfig `mapstructure:"server"`

	// Conversation session state
	Session SessionConfig `mapstructure:"session"`

	// Redis connection for the redis session store
	Redis RedisConfig `mapstructure:"redis"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Audit and feedback recorder
	Audit AuditConfig `mapstructure:"audit"`

	// PIN verification
	Credentials CredentialsConfig `mapstructure:"credentials"`

	// Reference data source
	Reference ReferenceConfig `mapstructure:"reference"`

	// Scripted conversation simulation
	Simulate SimulateConfig `mapstructure:"simulate"`

	// Logging
	Log LogConfig `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	GinMode      string        `mapstructure:"gin_mode"` // debug, release, test
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig holds session store and dialogue policy settings
type SessionConfig struct {
	// Store driver (memory, redis)
	Store string `mapstructure:"store"`

	// Expiry of sessions with no activity
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// What completing feedback does to the session (end_session, keep_session)
	FeedbackCompletion string `mapstructure:"feedback_completion"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Connection string (DSN)
	// Format: user:password@tcp(host:port)/database
	DSN string `mapstructure:"dsn"`

	// Driver (mysql)
	Driver string `mapstructure:"driver"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// AuditConfig holds recorder settings
type AuditConfig struct {
	// Backend (log, mysql)
	Backend string `mapstructure:"backend"`

	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	Workers       int           `mapstructure:"workers"`
}

// CredentialsConfig selects how PINs are compared
type CredentialsConfig struct {
	// Verifier (plain, bcrypt)
	Verifier string `mapstructure:"verifier"`
}

// ReferenceConfig selects where customers, policies and claims come from
type ReferenceConfig struct {
	// Source (embedded, mysql)
	Source string `mapstructure:"source"`
}

// SimulateConfig holds scripted conversation settings
type SimulateConfig struct {
	// Random seed for reproducibility (0 = random)
	Seed int64 `mapstructure:"seed"`

	// Concurrency
	NumSessions int `mapstructure:"num_sessions"` // Concurrent scripted callers

	// Timing
	Duration     time.Duration `mapstructure:"duration"` // 0 = run until killed
	MinThinkTime time.Duration `mapstructure:"min_think_time"`
	MaxThinkTime time.Duration `mapstructure:"max_think_time"`

	// Script mix (0.0-1.0)
	WrongPINRate float64 `mapstructure:"wrong_pin_rate"`
	LockoutRate  float64 `mapstructure:"lockout_rate"`
	FeedbackRate float64 `mapstructure:"feedback_rate"`

	// Metrics
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

// LogConfig holds slog settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "",
			Port:         ServerPort,
			ReadTimeout:  ServerReadTimeout,
			WriteTimeout: ServerWriteTimeout,
			GinMode:      "release",
		},
		Session: SessionConfig{
			Store:              SessionStore,
			IdleTimeout:        SessionIdleTimeout,
			SweepInterval:      SessionSweepInterval,
			FeedbackCompletion: DefaultFeedbackCompletion,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: RedisKeyPrefix,
		},
		Database: DatabaseConfig{
			Driver:          DBDriver,
			MaxOpenConns:    DBMaxOpenConns,
			MaxIdleConns:    DBMaxIdleConns,
			ConnMaxLifetime: DBConnMaxLifetime,
			ConnMaxIdleTime: DBConnMaxIdleTime,
		},
		Audit: AuditConfig{
			Backend:       AuditBackend,
			BufferSize:    AuditBufferSize,
			BatchSize:     AuditBatchSize,
			FlushInterval: AuditFlushInterval,
			Workers:       AuditWorkers,
		},
		Credentials: CredentialsConfig{
			Verifier: "plain",
		},
		Reference: ReferenceConfig{
			Source: "embedded",
		},
		Simulate: SimulateConfig{
			Seed:            0,
			NumSessions:     SimNumSessions,
			Duration:        0, // Run until killed
			MinThinkTime:    MinThinkTime,
			MaxThinkTime:    MaxThinkTime,
			WrongPINRate:    SimWrongPINRate,
			LockoutRate:     SimLockoutRate,
			FeedbackRate:    SimFeedbackRate,
			MetricsInterval: MetricsInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// EnvPrefix is prepended to every environment override (ASSISTANT_SERVER_PORT)
const EnvPrefix = "ASSISTANT"

// envKeys lists every key that may be overridden from the environment.
// viper only consults the environment for keys it already knows about.
var envKeys = []string{
	"server.host", "server.read_timeout", "server.write_timeout", "server.gin_mode",
	"session.store", "session.idle_timeout", "session.sweep_interval", "session.feedback_completion",
	"redis.addr", "redis.password", "redis.db", "redis.key_prefix",
	"database.dsn", "database.driver", "database.max_open_conns", "database.max_idle_conns",
	"database.conn_max_lifetime", "database.conn_max_idle_time",
	"audit.backend", "audit.buffer_size", "audit.batch_size", "audit.flush_interval", "audit.workers",
	"credentials.verifier",
	"reference.source",
	"simulate.seed", "simulate.num_sessions", "simulate.duration",
	"simulate.min_think_time", "simulate.max_think_time",
	"simulate.wrong_pin_rate", "simulate.lockout_rate", "simulate.feedback_rate",
	"simulate.metrics_interval",
	"log.level", "log.format",
}

// BindEnvironment wires ASSISTANT_* variables into viper. The listening port
// also honours the conventional PORT variable.
func BindEnvironment(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server.port: %w", err)
	}
	return nil
}

// Load reads configuration from viper into a Config struct
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Unmarshal viper config into struct
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []string

	// Validate server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, "server.gin_mode must be one of: debug, release, test")
	}

	// Validate session config
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required when session.store is redis")
		}
	default:
		errs = append(errs, "session.store must be one of: memory, redis")
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, "session.idle_timeout must be non-negative")
	}
	switch c.Session.FeedbackCompletion {
	case FeedbackCompletionEndSession, FeedbackCompletionKeepSession:
	default:
		errs = append(errs, fmt.Sprintf("session.feedback_completion must be one of: %s, %s",
			FeedbackCompletionEndSession, FeedbackCompletionKeepSession))
	}

	// Validate audit config
	switch c.Audit.Backend {
	case "log":
	case "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required when audit.backend is mysql")
		}
	default:
		errs = append(errs, "audit.backend must be one of: log, mysql")
	}
	if c.Audit.BufferSize < 1 {
		errs = append(errs, "audit.buffer_size must be >= 1")
	}
	if c.Audit.BatchSize < 1 {
		errs = append(errs, "audit.batch_size must be >= 1")
	}
	if c.Audit.Workers < 1 {
		errs = append(errs, "audit.workers must be >= 1")
	}
	if c.Audit.FlushInterval <= 0 {
		errs = append(errs, "audit.flush_interval must be positive")
	}

	// Validate credentials and reference source
	switch strings.ToLower(c.Credentials.Verifier) {
	case "plain", "bcrypt":
	default:
		errs = append(errs, "credentials.verifier must be one of: plain, bcrypt")
	}
	switch c.Reference.Source {
	case "embedded":
	case "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required when reference.source is mysql")
		}
	default:
		errs = append(errs, "reference.source must be one of: embedded, mysql")
	}

	// Validate simulation config
	if c.Simulate.NumSessions <= 0 {
		errs = append(errs, "simulate.num_sessions must be positive")
	}
	if c.Simulate.MinThinkTime > c.Simulate.MaxThinkTime {
		errs = append(errs, "simulate.min_think_time must not exceed max_think_time")
	}
	if c.Simulate.WrongPINRate < 0 || c.Simulate.WrongPINRate > 1 {
		errs = append(errs, "simulate.wrong_pin_rate must be between 0.0 and 1.0")
	}
	if c.Simulate.LockoutRate < 0 || c.Simulate.LockoutRate > 1 {
		errs = append(errs, "simulate.lockout_rate must be between 0.0 and 1.0")
	}
	if c.Simulate.FeedbackRate < 0 || c.Simulate.FeedbackRate > 1 {
		errs = append(errs, "simulate.feedback_rate must be between 0.0 and 1.0")
	}

	// Validate database pool settings
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be >= 1")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "database.max_idle_conns must be >= 0")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "database.max_idle_conns should not exceed max_open_conns")
	}

	// Validate logging
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, "log.format must be one of: text, json")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", joinErrors(errs))
	}

	return nil
}

// joinErrors joins error messages with newline and bullet points
func joinErrors(errs []string) string {
	result := errs[0]
	for i := 1; i < len(errs); i++ {
		result += "\n  - " + errs[i]
	}
	return result
}
