package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultSecret = "change-me"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UserTTL  time.Duration `mapstructure:"user_ttl"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// SessionConfig holds cookie session configuration
type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
	MaxAge int    `mapstructure:"max_age"`
	Secure bool   `mapstructure:"secure"`
}

// SMTPConfig holds outgoing mail configuration. An empty host logs
// notifications instead of sending them.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "FocusWin")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "focuswin")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "data/focuswin.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.user_ttl", "5m")

	// JWT defaults
	v.SetDefault("jwt.secret", defaultSecret)
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("jwt.issuer", "focuswin-api")

	// Session defaults
	v.SetDefault("session.name", "focuswin_session")
	v.SetDefault("session.secret", defaultSecret)
	v.SetDefault("session.max_age", 86400*7)
	v.SetDefault("session.secure", false)

	// SMTP defaults
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.sender", "FocusWin <no-reply@focuswin.local>")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "http://localhost:3000")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	bindings := map[string]string{
		"app.name":        "APP_NAME",
		"app.environment": "APP_ENVIRONMENT",
		"app.debug":       "APP_DEBUG",

		"server.port":             "PORT",
		"server.host":             "SERVER_HOST",
		"server.read_timeout":     "SERVER_READ_TIMEOUT",
		"server.write_timeout":    "SERVER_WRITE_TIMEOUT",
		"server.idle_timeout":     "SERVER_IDLE_TIMEOUT",
		"server.request_timeout":  "SERVER_REQUEST_TIMEOUT",
		"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

		"database.driver":             "DB_DRIVER",
		"database.host":               "DB_HOST",
		"database.port":               "DB_PORT",
		"database.name":               "DB_NAME",
		"database.user":               "DB_USER",
		"database.password":           "DB_PASSWORD",
		"database.ssl_mode":           "DB_SSL_MODE",
		"database.sqlite_path":        "DB_SQLITE_PATH",
		"database.auto_migrate":       "DB_AUTO_MIGRATE",
		"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
		"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
		"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
		"database.conn_max_idle_time": "DB_CONN_MAX_IDLE_TIME",

		"redis.enabled":  "REDIS_ENABLED",
		"redis.host":     "REDIS_HOST",
		"redis.port":     "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":       "REDIS_DB",
		"redis.user_ttl": "REDIS_USER_TTL",

		"jwt.secret":     "JWT_SECRET",
		"jwt.expires_in": "JWT_EXPIRES_IN",
		"jwt.issuer":     "JWT_ISSUER",

		"session.name":    "SESSION_NAME",
		"session.secret":  "SESSION_SECRET",
		"session.max_age": "SESSION_MAX_AGE",
		"session.secure":  "SESSION_SECURE",

		"smtp.host":     "SMTP_HOST",
		"smtp.port":     "SMTP_PORT",
		"smtp.username": "SMTP_USERNAME",
		"smtp.password": "SMTP_PASSWORD",
		"smtp.sender":   "SMTP_SENDER",

		"logger.level":    "LOG_LEVEL",
		"logger.format":   "LOG_FORMAT",
		"logger.output":   "LOG_OUTPUT",
		"logger.filename": "LOG_FILENAME",

		"security.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
		"security.rate_limit_requests":  "RATE_LIMIT_REQUESTS",
		"security.rate_limit_window":    "RATE_LIMIT_WINDOW",

		"metrics.enabled": "ENABLE_METRICS",
	}

	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
	case DriverSQLite:
		if cfg.Database.SQLitePath == "" {
			return fmt.Errorf("database sqlite_path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.App.IsProduction() {
		if cfg.JWT.Secret == defaultSecret {
			return fmt.Errorf("JWT secret must be set and should not use default value")
		}
		if cfg.Session.Secret == defaultSecret {
			return fmt.Errorf("session secret must be set and should not use default value")
		}
	}

	if cfg.JWT.Secret == "" || cfg.Session.Secret == "" {
		return fmt.Errorf("JWT and session secrets must not be empty")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	return nil
}

// GetDSN returns the connection string for the configured driver
func (cfg *DatabaseConfig) GetDSN() string {
	if cfg.Driver == DriverSQLite {
		return cfg.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
