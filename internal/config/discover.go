package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that overrides config discovery.
const EnvConfig = "CAROLUS_CONFIG"

// ErrNoConfig is returned by Discover when no candidate file exists.
var ErrNoConfig = errors.New("config not found")

// DefaultPath is where `carolus init` writes a new config:
// $XDG_CONFIG_HOME/carolus/config.toml, falling back to ~/.config.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "carolus", "config.toml")
}

// SearchPaths lists the locations Discover tries, in order.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), "/etc/carolus/config.toml"}
}

// Discover returns the config file to load. CAROLUS_CONFIG wins when set and
// must point at an existing file; otherwise the first existing entry of
// SearchPaths is used.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	candidates := SearchPaths()
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoConfig, strings.Join(candidates, ", "))
}
