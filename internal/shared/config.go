package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvMongoHost     = "MONGODB_SERVICE"
	EnvMongoUsername = "MONGODB_USERNAME"
	EnvMongoPassword = "MONGODB_PASSWORD"
	EnvMongoPort     = "MONGODB_PORT"
	EnvDriver        = "SONGS_STORAGE_DRIVER"
	EnvSeedPath      = "SONGS_SEED_PATH"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Mongo    MongoConfig    `toml:"mongo"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Seed     SeedConfig     `toml:"seed"`
	Log      LogConfig      `toml:"log"`
}

// StorageConfig selects the song storage backend.
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// MongoConfig contains MongoDB connection settings.
type MongoConfig struct {
	Host           string `toml:"host"`
	Port           string `toml:"port"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	Database       string `toml:"database"`
	Collection     string `toml:"collection"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains SQLite connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string  `toml:"host"`
	Port                int     `toml:"port"`
	ReadTimeoutSeconds  int     `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int     `toml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int     `toml:"idle_timeout_seconds"`
	RateLimit           float64 `toml:"rate_limit"`
	RateBurst           int     `toml:"rate_burst"`
}

// SeedConfig points at the dataset loaded into the songs collection on startup.
type SeedConfig struct {
	Path string `toml:"path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values with environment variables.
//
// lookup is usually [os.LookupEnv]; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(EnvMongoHost, &c.Mongo.Host)
	set(EnvMongoUsername, &c.Mongo.Username)
	set(EnvMongoPassword, &c.Mongo.Password)
	set(EnvMongoPort, &c.Mongo.Port)
	set(EnvDriver, &c.Storage.Driver)
	set(EnvSeedPath, &c.Seed.Path)
}

// Validate checks the settings required by the selected storage driver.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Mongo.Host == "" {
			return fmt.Errorf("%w: missing MongoDB server in %s", ErrMissingConfig, EnvMongoHost)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: missing database path", ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// HasCredentials reports whether both username and password are set. A lone username or password is ignored.
func (m MongoConfig) HasCredentials() bool {
	return m.Username != "" && m.Password != ""
}

// Timeout returns the connect/ping timeout, defaulting to ten seconds.
func (m MongoConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// URI assembles the mongodb:// connection string.
//
// Port is appended only when Host is a single host without a port of its own.
func (m MongoConfig) URI() string {
	host := m.Host
	if m.Port != "" && !strings.ContainsAny(host, ":,") {
		host = host + ":" + m.Port
	}

	u := url.URL{Scheme: "mongodb", Host: host, Path: "/"}
	if m.HasCredentials() {
		u.User = url.UserPassword(m.Username, m.Password)
	}
	return u.String()
}

// Redacted returns the connection string with the password masked, for logging.
func (m MongoConfig) Redacted() string {
	u, err := url.Parse(m.URI())
	if err != nil {
		return "mongodb://" + m.Host
	}
	return u.Redacted()
}
