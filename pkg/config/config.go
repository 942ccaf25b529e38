// Package config handles configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/driftworks/stackpulse/pkg/types"
)

// Config holds all configuration for the stackpulse service. It is loaded
// once at startup and treated as immutable afterwards.
type Config struct {
	// Inbound HTTP/WebSocket listener
	ListenAddr string

	// Refresh behavior
	Interval     time.Duration // full refresh cycle period (default: 30s)
	ProbeTimeout time.Duration // per-request bound for probes and fetchers (default: 5s)

	// Backends for the auxiliary fetchers
	OllamaURL      string
	PipelinesURL   string
	PipelinesToken string // static bearer credential for the pipelines service

	// Optional Redis publisher for external dashboards
	RedisURL string

	// Services to probe each cycle
	Services []types.ServiceDescriptor
}

// DefaultConfig returns a config with sensible defaults for a local AI stack.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     "127.0.0.1:8088",
		Interval:       30 * time.Second,
		ProbeTimeout:   5 * time.Second,
		OllamaURL:      "http://localhost:11434",
		PipelinesURL:   "http://localhost:9099",
		PipelinesToken: "0p3n-w3bu!",
		Services:       DefaultServices(),
	}
}

// DefaultServices is the built-in service registry.
func DefaultServices() []types.ServiceDescriptor {
	return []types.ServiceDescriptor{
		{Key: "open-webui", DisplayName: "Open WebUI", BaseURL: "http://localhost:3000", HealthPath: "/health", Icon: "chat"},
		{Key: "ollama", DisplayName: "Ollama", BaseURL: "http://localhost:11434", HealthPath: "/api/version", Icon: "brain"},
		{Key: "pipelines", DisplayName: "Pipelines", BaseURL: "http://localhost:9099", HealthPath: "/", Icon: "flow"},
		{Key: "mem0", DisplayName: "Mem0", BaseURL: "http://localhost:8000", HealthPath: "/", Icon: "memory"},
	}
}

// Load creates a Config from environment variables.
func Load() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("STACKPULSE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("STACKPULSE_INTERVAL"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.Interval = time.Duration(seconds) * time.Second
		}
	}

	if v := os.Getenv("STACKPULSE_PROBE_TIMEOUT"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.ProbeTimeout = time.Duration(seconds) * time.Second
		}
	}

	if v := os.Getenv("STACKPULSE_OLLAMA_URL"); v != "" {
		cfg.OllamaURL = v
	}
	if v := os.Getenv("STACKPULSE_PIPELINES_URL"); v != "" {
		cfg.PipelinesURL = v
	}
	if v := os.Getenv("STACKPULSE_PIPELINES_TOKEN"); v != "" {
		cfg.PipelinesToken = v
	}
	if v := os.Getenv("STACKPULSE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}

	// Service registry override (comma-separated: key=name=baseURL=healthPath)
	// Example: STACKPULSE_SERVICES=ollama=Ollama=http://10.0.0.5:11434=/api/version
	if v := os.Getenv("STACKPULSE_SERVICES"); v != "" {
		if services := parseServices(v); len(services) > 0 {
			cfg.Services = services
		}
	}

	return cfg
}

// parseServices parses the service registry override string.
// Format: "key=name=baseURL=healthPath,key=name=baseURL=healthPath".
// healthPath defaults to "/" when omitted; malformed entries are skipped.
func parseServices(s string) []types.ServiceDescriptor {
	var services []types.ServiceDescriptor

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		segments := strings.Split(part, "=")
		if len(segments) < 3 {
			continue
		}

		sd := types.ServiceDescriptor{
			Key:         strings.TrimSpace(segments[0]),
			DisplayName: strings.TrimSpace(segments[1]),
			BaseURL:     strings.TrimRight(strings.TrimSpace(segments[2]), "/"),
			HealthPath:  "/",
		}
		if len(segments) >= 4 && strings.TrimSpace(segments[3]) != "" {
			sd.HealthPath = strings.TrimSpace(segments[3])
		}
		if sd.Key == "" || sd.BaseURL == "" {
			continue
		}

		services = append(services, sd)
	}

	return services
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return &ConfigError{Field: "ListenAddr", Message: "listen address is required (set STACKPULSE_LISTEN_ADDR)"}
	}
	if len(c.Services) == 0 {
		return &ConfigError{Field: "Services", Message: "at least one service descriptor is required"}
	}
	seen := make(map[string]bool, len(c.Services))
	for _, sd := range c.Services {
		if seen[sd.Key] {
			return &ConfigError{Field: "Services", Message: "duplicate service key: " + sd.Key}
		}
		seen[sd.Key] = true
	}
	if c.Interval <= 0 {
		return &ConfigError{Field: "Interval", Message: "refresh interval must be positive"}
	}
	if c.ProbeTimeout <= 0 {
		return &ConfigError{Field: "ProbeTimeout", Message: "probe timeout must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Message
}
