// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Library  LibraryConfig  `toml:"library"`
	Events   EventsConfig   `toml:"events"`
}

type ServerConfig struct {
	Host     string    `toml:"host"`
	Port     int       `toml:"port"`
	LogLevel string    `toml:"log_level"`
	TLS      TLSConfig `toml:"tls"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
}

// Enabled reports whether the server should listen with TLS.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibraryConfig struct {
	Roots         []string      `toml:"roots"`
	Extensions    []string      `toml:"extensions"`
	Watch         bool          `toml:"watch"`
	WatchDebounce time.Duration `toml:"watch_debounce"`
	ScanInterval  time.Duration `toml:"scan_interval"`
	Fingerprint   bool          `toml:"fingerprint"`
	Probe         bool          `toml:"probe"`
	FFprobe       string        `toml:"ffprobe"`
	Workers       int           `toml:"workers"`
}

type EventsConfig struct {
	Retention time.Duration `toml:"retention"`
}

// DefaultExtensions are the video file extensions indexed when none are configured.
var DefaultExtensions = []string{".avi", ".m4v", ".mkv", ".mp4", ".mpeg", ".mpg", ".mov", ".webm", ".wmv"}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file and applies
// defaults. Unresolved environment variables are still an error.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/carolus.db"
	}
	if len(c.Library.Extensions) == 0 {
		c.Library.Extensions = append([]string(nil), DefaultExtensions...)
	}
	for i, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Library.Extensions[i] = ext
	}
	if c.Library.WatchDebounce == 0 {
		c.Library.WatchDebounce = 10 * time.Second
	}
	if c.Library.FFprobe == "" {
		c.Library.FFprobe = "ffprobe"
	}
	if c.Library.Workers == 0 {
		c.Library.Workers = 4
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = 30 * 24 * time.Hour
	}
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// envVarPattern matches ${NAME}, ${NAME:-default} and ${NAME:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references and returns the names
// (or ":?" messages) that could not be resolved. Unresolved references are
// left in place. Comment lines are copied unchanged.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		var m []string
		lines[i], m = substituteLine(line)
		missing = append(missing, m...)
	}
	return strings.Join(lines, ""), missing
}

func substituteLine(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
			return value
		}

		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
