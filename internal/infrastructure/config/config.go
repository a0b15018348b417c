package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Keys follow the field
// path, e.g. LENDING_SERVER_PORT or LENDING_CONNECT_CODE_REDEEM_BURST.
const EnvPrefix = "LENDING"

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ErrorsConfig struct {
	// IncludeTimestamp adds a timestamp to every error envelope.
	IncludeTimestamp bool `yaml:"include_timestamp" split_words:"true"`
	// ExposeInternalMessages reports unclassified error messages to clients.
	ExposeInternalMessages bool `yaml:"expose_internal_messages" split_words:"true"`
}

type ConnectCodeConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	Length          int           `yaml:"length"`
	RedeemPerMinute int           `yaml:"redeem_per_minute" split_words:"true"`
	RedeemBurst     int           `yaml:"redeem_burst" split_words:"true"`
}

type AdminKeyConfig struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	Hash string `yaml:"hash"`
}

type SecurityConfig struct {
	AdminKeys []AdminKeyConfig `yaml:"admin_keys" ignored:"true"`
	// Policies are casbin lines: ["p", role, path, method] or ["g", user, role].
	Policies [][]string `yaml:"policies" ignored:"true"`
}

type ApplicationConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
	Errors      ErrorsConfig      `yaml:"errors"`
	ConnectCode ConnectCodeConfig `yaml:"connect_code" split_words:"true"`
	Security    SecurityConfig    `yaml:"security" ignored:"true"`
	Application ApplicationConfig `yaml:"application"`
}

// Default returns a config populated with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: filepath.Join("data", "lending.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		ConnectCode: ConnectCodeConfig{
			TTL:             15 * time.Minute,
			Length:          8,
			RedeemPerMinute: 5,
			RedeemBurst:     5,
		},
		Application: ApplicationConfig{
			Name:    "lending-admin-api",
			Version: "v1.0.0",
		},
	}
}

// DefaultPath is used when APP_CONFIG is unset.
func DefaultPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	return filepath.Join("configs", "app.yaml")
}

// Load layers defaults, the YAML file at path (skipped when missing) and
// LENDING_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.ConnectCode.TTL <= 0 {
		errs = append(errs, errors.New("connect_code.ttl must be positive"))
	}
	if c.ConnectCode.Length < 4 || c.ConnectCode.Length > 32 {
		errs = append(errs, fmt.Errorf("connect_code.length must be in 4..32, got %d", c.ConnectCode.Length))
	}
	if c.ConnectCode.RedeemPerMinute <= 0 || c.ConnectCode.RedeemBurst <= 0 {
		errs = append(errs, errors.New("connect_code redeem limits must be positive"))
	}
	for i, k := range c.Security.AdminKeys {
		if k.Name == "" || k.Role == "" || k.Hash == "" {
			errs = append(errs, fmt.Errorf("security.admin_keys[%d] needs name, role and hash", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
