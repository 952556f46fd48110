package config

import (
	"fmt"
	"strings"
)

// ConfigError reports every problem found while loading a config file.
type ConfigError struct {
	Path    string   // config file path
	Missing []string // unresolved ${VAR} references
	Errors  []string // failed validation rules
}

// Problems returns every problem as one line, missing variables first.
func (e *ConfigError) Problems() []string {
	problems := make([]string, 0, len(e.Missing)+len(e.Errors))
	for _, m := range e.Missing {
		problems = append(problems, "missing environment variable "+m)
	}
	return append(problems, e.Errors...)
}

func (e *ConfigError) Error() string {
	problems := e.Problems()
	if len(problems) == 0 {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "config %s: ", e.Path)
	}
	if len(problems) == 1 {
		b.WriteString(problems[0])
		return b.String()
	}
	fmt.Fprintf(&b, "%d problems", len(problems))
	for _, p := range problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

// HasErrors reports whether any problem was recorded.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
