package config

import (
	"fmt"
	"time"
)

// Config is the full service configuration. It is loaded once at startup
// from defaults and environment variables; there is no runtime reloading.
type Config struct {
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Database  DatabaseConfig  `koanf:"database"  validate:"required"`
	Redis     RedisConfig     `koanf:"redis"     validate:"required"`
	Cache     CacheConfig     `koanf:"cache"     validate:"required"`
	Ephemeris EphemerisConfig `koanf:"ephemeris" validate:"required"`
	Retention RetentionConfig `koanf:"retention" validate:"required"`
	Engine    EngineConfig    `koanf:"engine"    validate:"required"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"        env:"SERVER_HOST"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled     bool          `koanf:"cors_enabled"                                env:"SERVER_CORS_ENABLED"`
	Timeout         time.Duration `koanf:"timeout"                                     env:"SERVER_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"                            env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig configures the postgres reading store. Either a full
// connection string or the individual components must be provided.
type DatabaseConfig struct {
	ConnString  string          `koanf:"conn_string"  env:"DB_CONN_STRING"`
	Host        string          `koanf:"host"         env:"DB_HOST"`
	Port        string          `koanf:"port"         env:"DB_PORT"`
	User        string          `koanf:"user"         env:"DB_USER"`
	Password    SensitiveString `koanf:"password"     env:"DB_PASSWORD"     sensitive:"true"`
	DBName      string          `koanf:"name"         env:"DB_NAME"`
	SSLMode     string          `koanf:"ssl_mode"     env:"DB_SSL_MODE"`
	AutoMigrate bool            `koanf:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	MaxConns    int32           `koanf:"max_conns"    env:"DB_MAX_CONNS"`
}

// DSN assembles a postgres connection string from the configured parts.
func (d *DatabaseConfig) DSN() string {
	if d.ConnString != "" {
		return d.ConnString
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password.Value(), d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig configures the reading cache backend.
type RedisConfig struct {
	URL         string          `koanf:"url"          env:"REDIS_URL"`
	Host        string          `koanf:"host"         env:"REDIS_HOST"`
	Port        string          `koanf:"port"         env:"REDIS_PORT"`
	Password    SensitiveString `koanf:"password"     env:"REDIS_PASSWORD" sensitive:"true"`
	DB          int             `koanf:"db"           env:"REDIS_DB"`
	PoolSize    int             `koanf:"pool_size"    env:"REDIS_POOL_SIZE"`
	PingTimeout time.Duration   `koanf:"ping_timeout" env:"REDIS_PING_TIMEOUT"`
}

// CacheConfig governs calculation-result caching.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled" env:"CACHE_ENABLED"`
	TTL     time.Duration `koanf:"ttl"     env:"CACHE_TTL"`
}

// EphemerisConfig configures the astronomical calculation backend.
type EphemerisConfig struct {
	DataPath    string        `koanf:"data_path"    env:"EPHEMERIS_DATA_PATH"`
	Timeout     time.Duration `koanf:"timeout"      env:"EPHEMERIS_TIMEOUT"`
	MemoizeSize int64         `koanf:"memoize_size" validate:"min=0" env:"EPHEMERIS_MEMOIZE_SIZE"`
}

// RetentionConfig caps how long persisted readings live.
type RetentionConfig struct {
	DefaultDays      int    `koanf:"default_days"       validate:"min=1"        env:"RETENTION_DEFAULT_DAYS"`
	MaxDays          int    `koanf:"max_days"           validate:"min=1"        env:"RETENTION_MAX_DAYS"`
	BiometricMaxDays int    `koanf:"biometric_max_days" validate:"min=1,max=30" env:"RETENTION_BIOMETRIC_MAX_DAYS"`
	ReaperEnabled    bool   `koanf:"reaper_enabled"                             env:"RETENTION_REAPER_ENABLED"`
	ReaperSchedule   string `koanf:"reaper_schedule"                            env:"RETENTION_REAPER_SCHEDULE"`
}

// EngineConfig bounds engine execution.
type EngineConfig struct {
	RunTimeout     time.Duration `koanf:"run_timeout"     env:"ENGINE_RUN_TIMEOUT"`
	PersistTimeout time.Duration `koanf:"persist_timeout" env:"ENGINE_PERSIST_TIMEOUT"`
	MaxParallel    int           `koanf:"max_parallel"    validate:"min=1"  env:"ENGINE_MAX_PARALLEL"`
	WriteQueueSize int           `koanf:"write_queue_size" validate:"min=1" env:"ENGINE_WRITE_QUEUE_SIZE"`
}

// AuthConfig holds the admin credential used by privileged endpoints.
type AuthConfig struct {
	Enabled         bool            `koanf:"enabled"            env:"AUTH_ENABLED"`
	AdminAPIKeyHash SensitiveString `koanf:"admin_api_key_hash" env:"AUTH_ADMIN_API_KEY_HASH" sensitive:"true"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error disabled" env:"LOG_LEVEL"`
	JSON   bool   `koanf:"json"   env:"LOG_JSON"`
	Source bool   `koanf:"source" env:"LOG_SOURCE"`
}

// Default returns the baseline configuration before environment overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			CORSEnabled:     true,
			Timeout:         60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			Password:    "",
			DBName:      "aura",
			SSLMode:     "disable",
			AutoMigrate: true,
			MaxConns:    20,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        "6379",
			DB:          0,
			PoolSize:    10,
			PingTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Ephemeris: EphemerisConfig{
			DataPath:    "",
			Timeout:     10 * time.Second,
			MemoizeSize: 10000,
		},
		Retention: RetentionConfig{
			DefaultDays:      365,
			MaxDays:          3650,
			BiometricMaxDays: 30,
			ReaperEnabled:    true,
			ReaperSchedule:   "0 * * * *",
		},
		Engine: EngineConfig{
			RunTimeout:     30 * time.Second,
			PersistTimeout: 5 * time.Second,
			MaxParallel:    8,
			WriteQueueSize: 256,
		},
		Auth: AuthConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
