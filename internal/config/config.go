// Package config holds the resolved process configuration. Values come from
// command-line arguments first and MCP_* environment variables second; a
// .env file in the working directory is loaded into the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultQueryTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	// DSN is the connection string. It is never logged unmasked.
	DSN    string
	Driver string

	// Schemas is the allow-list; empty means the dialect default.
	Schemas []string

	Transport       string
	ListenAddr      string
	MetricsAddr     string
	QueryTimeout    time.Duration
	ShutdownTimeout time.Duration
	Strict          bool
	Verbose         bool
}

func (c *Config) Validate() error {
	if c.DSN == "" && c.Driver == "" {
		return fmt.Errorf("a connection string or --driver is required")
	}
	switch c.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.ListenAddr == "" {
			return fmt.Errorf("listen address is required for the http transport")
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}
	for _, s := range c.Schemas {
		if s == "" {
			return fmt.Errorf("schema names must not be empty")
		}
	}
	return nil
}

// LoadDotEnv reads .env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ParseSchemas splits a comma separated schema list, trimming blanks and
// dropping empty entries and duplicates while keeping order.
func ParseSchemas(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// EnvString returns the value of key, or def when unset or empty.
func EnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvBool returns the boolean value of key, or def when unset or unparseable.
func EnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// EnvDuration accepts Go durations ("45s") and bare integers as seconds.
func EnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
