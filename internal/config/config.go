// Package config loads the ffbridge configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/transport"
)

// Default values for Config.
const (
	DefaultHTTPAddr = "127.0.0.1:8766"
	DefaultDirName  = ".ffbridge"
	DefaultDBName   = "ffbridge.db"
	DefaultFileName = "config.yaml"
)

// Transport kinds.
const (
	TransportPipe   = "pipe"
	TransportSerial = "serial"
)

// Reference pose sources.
const (
	ReferencesBuiltin = "builtin"
	ReferencesStore   = "store"
	ReferencesFile    = "file"
)

// Environment variables that override file values.
const (
	EnvScope    = "FFBRIDGE_SCOPE"
	EnvHTTPAddr = "FFBRIDGE_HTTP_ADDR"
	EnvDB       = "FFBRIDGE_DB"
	EnvLogLevel = "FFBRIDGE_LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	Scope      string           `yaml:"scope"`
	Transport  TransportConfig  `yaml:"transport"`
	References ReferencesConfig `yaml:"references"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Tray       TrayConfig       `yaml:"tray"`
	Log        LogConfig        `yaml:"log"`
}

// TransportConfig selects how records reach the driver.
type TransportConfig struct {
	Kind           string        `yaml:"kind"`
	SocketDir      string        `yaml:"socket_dir"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	Serial         SerialConfig  `yaml:"serial"`
}

// SerialConfig holds the serial device of each hand.
type SerialConfig struct {
	Left  SerialPortConfig `yaml:"left"`
	Right SerialPortConfig `yaml:"right"`
}

// SerialPortConfig is one serial device and its line settings.
type SerialPortConfig struct {
	Port                    string `yaml:"port"`
	transport.SerialOptions `yaml:",inline"`
}

// Hand returns the serial settings of side.
func (s SerialConfig) Hand(side skeleton.Side) SerialPortConfig {
	if side == skeleton.Left {
		return s.Left
	}
	return s.Right
}

// Options converts the timeouts to transport options.
func (t TransportConfig) Options() transport.Options {
	return transport.Options{
		ConnectTimeout: t.ConnectTimeout,
		WriteTimeout:   t.WriteTimeout,
		SocketDir:      t.SocketDir,
	}
}

// ReferencesConfig selects the open and closed reference poses.
type ReferencesConfig struct {
	Source string `yaml:"source"`
	// Open and Closed name stored poses when Source is "store".
	Open   string `yaml:"open"`
	Closed string `yaml:"closed"`
	// File is a JSON file with "open" and "closed" poses when Source is "file".
	File string `yaml:"file"`
}

// HTTPConfig configures the local control API.
type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// DatabaseConfig configures the pose store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TrayConfig toggles the system tray menu.
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string         `yaml:"level"`
	Format      string         `yaml:"format"`
	Outputs     []string       `yaml:"outputs"`
	Development bool           `yaml:"development"`
	Rotation    RotationConfig `yaml:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	Enable     bool   `yaml:"enable"`
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Dir returns the per-user data directory, ~/.ffbridge.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// DefaultPath returns the default config file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// Default returns a Config with default values.
func Default() Config {
	dbPath := DefaultDBName
	if dir, err := Dir(); err == nil {
		dbPath = filepath.Join(dir, DefaultDBName)
	}

	return Config{
		Scope: transport.DefaultScope,
		Transport: TransportConfig{
			Kind:           TransportPipe,
			ConnectTimeout: transport.DefaultConnectTimeout,
			WriteTimeout:   transport.DefaultWriteTimeout,
		},
		References: ReferencesConfig{Source: ReferencesBuiltin},
		HTTP:       HTTPConfig{Addr: DefaultHTTPAddr},
		Database:   DatabaseConfig{Path: dbPath},
		Tray:       TrayConfig{Enabled: true},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
		},
	}
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ApplyEnv(&cfg, os.LookupEnv)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with the FFBRIDGE_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvScope); ok && v != "" {
		cfg.Scope = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.Database.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Scope) == "" {
		return ValidationError{Field: "scope", Message: "must not be empty"}
	}
	if strings.Contains(cfg.Scope, "\\") {
		return ValidationError{Field: "scope", Message: "must not contain backslashes"}
	}

	if err := validateTransport(&cfg.Transport); err != nil {
		return err
	}

	switch cfg.References.Source {
	case ReferencesBuiltin:
	case ReferencesStore:
		if cfg.References.Open == "" || cfg.References.Closed == "" {
			return ValidationError{Field: "references", Message: "open and closed pose names are required for store source"}
		}
	case ReferencesFile:
		if cfg.References.File == "" {
			return ValidationError{Field: "references.file", Message: "required for file source"}
		}
	default:
		return ValidationError{Field: "references.source", Message: fmt.Sprintf("unknown source %q", cfg.References.Source)}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", cfg.Log.Level)}
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		return ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", cfg.Log.Format)}
	}

	return nil
}

func validateTransport(t *TransportConfig) error {
	if t.ConnectTimeout < 0 {
		return ValidationError{Field: "transport.connect_timeout", Message: "must not be negative"}
	}
	if t.WriteTimeout < 0 {
		return ValidationError{Field: "transport.write_timeout", Message: "must not be negative"}
	}

	switch t.Kind {
	case TransportPipe:
	case TransportSerial:
		for _, side := range skeleton.Sides() {
			field := "transport.serial." + side.String()
			port := t.Serial.Hand(side)
			if port.Port == "" {
				return ValidationError{Field: field + ".port", Message: "required for serial transport"}
			}
			if _, err := port.Normalize(); err != nil {
				return ValidationError{Field: field, Message: err.Error()}
			}
		}
	default:
		return ValidationError{Field: "transport.kind", Message: fmt.Sprintf("unknown kind %q", t.Kind)}
	}
	return nil
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
