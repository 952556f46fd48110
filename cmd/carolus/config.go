package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carolus/carolus/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without starting the server.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = config.Discover(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(out, configErr)
			return errors.New("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(out, cfg)
	fmt.Fprintln(out, "\nConfiguration valid!")
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	scheme := "http"
	if cfg.Server.TLS.Enabled() {
		scheme = "https"
	}

	fmt.Fprintln(w, "Configuration Summary:")
	fmt.Fprintf(w, "  Server:     %s://%s (log: %s)\n", scheme, cfg.Addr(), cfg.Server.LogLevel)
	fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "  Roots:      %s\n", strings.Join(cfg.Library.Roots, ", "))
	fmt.Fprintf(w, "  Extensions: %s\n", strings.Join(cfg.Library.Extensions, " "))

	var features []string
	if cfg.Library.Watch {
		features = append(features, fmt.Sprintf("watch (%s)", cfg.Library.WatchDebounce))
	}
	if cfg.Library.ScanInterval > 0 {
		features = append(features, fmt.Sprintf("rescan every %s", cfg.Library.ScanInterval))
	}
	if cfg.Library.Fingerprint {
		features = append(features, "fingerprint")
	}
	if cfg.Library.Probe {
		features = append(features, "probe")
	}
	if len(features) > 0 {
		fmt.Fprintf(w, "  Features:   %s\n", strings.Join(features, ", "))
	}
	fmt.Fprintf(w, "  Events:     kept %s\n", cfg.Events.Retention)
}
