// Package config loads the CommitKV server configuration from TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// SystemDatabase is the reserved name of the database holding user accounts.
const SystemDatabase = "_system"

// Config holds the complete server configuration
type Config struct {
	Net      NetConfig      `toml:"net" yaml:"net"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Auth     AuthConfig     `toml:"auth" yaml:"auth"`
	S3       S3Config       `toml:"s3" yaml:"s3"`
	Compat   CompatConfig   `toml:"compat" yaml:"compat"`
}

// NetConfig holds listener settings
type NetConfig struct {
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	TLSCert     string   `toml:"tls_cert" yaml:"tls_cert"`
	TLSKey      string   `toml:"tls_key" yaml:"tls_key"`
	ReadTimeout Duration `toml:"read_timeout" yaml:"read_timeout"`
}

// DatabaseConfig holds storage settings. An empty Path keeps every
// database in memory.
type DatabaseConfig struct {
	Path           string `toml:"path" yaml:"path"`
	Default        string `toml:"default" yaml:"default"`
	CacheSize      int    `toml:"cache_size" yaml:"cache_size"`
	CommitterName  string `toml:"committer_name" yaml:"committer_name"`
	CommitterEmail string `toml:"committer_email" yaml:"committer_email"`
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	JWTSecret     string `toml:"jwt_secret" yaml:"jwt_secret"`
	Issuer        string `toml:"issuer" yaml:"issuer"`
	Audience      string `toml:"audience" yaml:"audience"`
	NameClaim     string `toml:"name_claim" yaml:"name_claim"`
	AdminUser     string `toml:"admin_user" yaml:"admin_user"`
	AdminPassword string `toml:"admin_password" yaml:"admin_password"`
}

// S3Config holds credentials for s3:// restore sources and snapshot targets
type S3Config struct {
	AccessKey string `toml:"access_key" yaml:"access_key"`
	SecretKey string `toml:"secret_key" yaml:"secret_key"`
	Region    string `toml:"region" yaml:"region"`
	Endpoint  string `toml:"endpoint" yaml:"endpoint"`
}

// CompatConfig toggles behaviour kept for older clients
type CompatConfig struct {
	// LegacyKeyNotExists reports a missing key on update or delete as
	// AlreadyExists instead of NotFound.
	LegacyKeyNotExists bool `toml:"legacy_key_not_exists" yaml:"legacy_key_not_exists"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a .toml, .yaml or .yml file and fills in defaults.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, err
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Net.Host == "" {
		c.Net.Host = "127.0.0.1"
	}
	if c.Net.Port == 0 {
		c.Net.Port = 3306
	}
	if c.Net.ReadTimeout.Duration == 0 {
		c.Net.ReadTimeout.Duration = 5 * time.Minute
	}

	if c.Database.Default == "" {
		c.Database.Default = "default"
	}
	if c.Database.CacheSize == 0 {
		c.Database.CacheSize = 1024
	}
	if c.Database.CommitterName == "" {
		c.Database.CommitterName = "CommitKV"
	}
	if c.Database.CommitterEmail == "" {
		c.Database.CommitterEmail = "commitkv@localhost"
	}

	if c.Auth.NameClaim == "" {
		c.Auth.NameClaim = "sub"
	}
	if c.Auth.AdminUser == "" {
		c.Auth.AdminUser = "admin"
	}
}

func (c *Config) expandEnvVars() {
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.Net.TLSCert = os.ExpandEnv(c.Net.TLSCert)
	c.Net.TLSKey = os.ExpandEnv(c.Net.TLSKey)
	c.Auth.JWTSecret = os.ExpandEnv(c.Auth.JWTSecret)
	c.Auth.AdminPassword = os.ExpandEnv(c.Auth.AdminPassword)
	c.S3.AccessKey = os.ExpandEnv(c.S3.AccessKey)
	c.S3.SecretKey = os.ExpandEnv(c.S3.SecretKey)
}

// Validate reports the first inconsistency in the configuration.
func (c *Config) Validate() error {
	if c.Net.Port < 0 || c.Net.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Net.Port)
	}
	if (c.Net.TLSCert == "") != (c.Net.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	if c.Database.Default == SystemDatabase {
		return fmt.Errorf("default database cannot be %s", SystemDatabase)
	}
	if c.Database.CacheSize < 0 {
		return fmt.Errorf("invalid cache size: %d", c.Database.CacheSize)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && c.Auth.AdminPassword == "" {
		return errors.New("auth enabled without jwt_secret or admin_password")
	}
	return nil
}

// Address is host:port for the listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Net.Host, c.Net.Port)
}

// TLSEnabled reports whether the listener should use TLS.
func (c *Config) TLSEnabled() bool {
	return c.Net.TLSCert != "" && c.Net.TLSKey != ""
}
