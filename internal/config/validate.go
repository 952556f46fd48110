// internal/config/validate.go
package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// TLS needs both halves of the key pair
	tls := c.Server.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		errs = append(errs, "server.tls: cert_file and key_file must be set together")
	}
	if tls.Enabled() {
		if _, err := os.Stat(tls.CertFile); err != nil {
			errs = append(errs, fmt.Sprintf("server.tls.cert_file: %v", err))
		}
		if _, err := os.Stat(tls.KeyFile); err != nil {
			errs = append(errs, fmt.Sprintf("server.tls.key_file: %v", err))
		}
	}

	// Library validation
	if len(c.Library.Roots) == 0 {
		errs = append(errs, "library.roots: at least one library root must be configured")
	}
	for i, root := range c.Library.Roots {
		if root == "" {
			errs = append(errs, fmt.Sprintf("library.roots[%d]: empty path", i))
			continue
		}
		info, err := os.Stat(root)
		switch {
		case os.IsNotExist(err):
			errs = append(errs, fmt.Sprintf("library.roots[%d]: directory %q does not exist", i, root))
		case err != nil:
			errs = append(errs, fmt.Sprintf("library.roots[%d]: %v", i, err))
		case !info.IsDir():
			errs = append(errs, fmt.Sprintf("library.roots[%d]: %q is not a directory", i, root))
		}
	}
	for i, ext := range c.Library.Extensions {
		if ext == "" || ext == "." {
			errs = append(errs, fmt.Sprintf("library.extensions[%d]: empty extension", i))
		}
	}
	if c.Library.Workers < 0 {
		errs = append(errs, fmt.Sprintf("library.workers: must not be negative, got %d", c.Library.Workers))
	}
	if c.Library.WatchDebounce < 0 {
		errs = append(errs, "library.watch_debounce: must not be negative")
	}
	if c.Library.ScanInterval < 0 {
		errs = append(errs, "library.scan_interval: must not be negative")
	}
	if c.Events.Retention < 0 {
		errs = append(errs, "events.retention: must not be negative")
	}

	return errs
}
