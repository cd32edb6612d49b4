package positions

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client and proxy configuration
type Config struct {
	// Backend is the remote positions API
	Backend *Backend `json:"backend" yaml:"backend"`

	// Proxy configures the local same-origin proxy route
	Proxy *ProxyConfig `json:"proxy" yaml:"proxy"`

	// MCP configures the MCP bridge served next to the proxy
	MCP *MCPConfig `json:"mcp" yaml:"mcp"`

	// Logging configures the process logger
	Logging *LoggingConfig `json:"logging" yaml:"logging"`
}

// ProxyConfig defines the local proxy route and development detection
type ProxyConfig struct {
	// Addr the proxy server listens on, ":3000" by default
	Addr string `json:"addr" yaml:"addr"`

	// Prefix is the route forwarded to the backend, "/api/proxy/" by default
	Prefix string `json:"prefix" yaml:"prefix"`

	// DevPort marks pages served from this port as development ("3000")
	DevPort string `json:"dev_port" yaml:"dev_port"`

	// DevHosts are extra hostnames treated as development
	DevHosts []string `json:"dev_hosts,omitempty" yaml:"dev_hosts,omitempty"`

	// CORS headers applied under /api
	CORS *CORSConfig `json:"cors" yaml:"cors"`
}

// CORSConfig lists the values of the Access-Control-Allow-* headers
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers"`
}

// MCPConfig defines MCP-specific settings
type MCPConfig struct {
	// Enabled mounts the MCP SSE endpoints on the proxy server
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ServerName for MCP identification
	ServerName string `json:"server_name" yaml:"server_name"`

	// Version of the MCP server
	Version string `json:"version" yaml:"version"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	// Defaults on an empty config cannot fail
	_ = setConfigDefaults(cfg)
	return cfg
}

// Resolver returns the endpoint resolver described by the configuration
func (c *Config) Resolver() Resolver {
	return Resolver{
		RemoteBase: c.Backend.BaseURL,
		DevPort:    c.Proxy.DevPort,
		DevHosts:   c.Proxy.DevHosts,
	}
}

func ParseConfig(filename string) (*Config, error) {
	// Expand path to handle environment variables and home directory
	expandedPath := expandPath(filename)

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", expandedPath, err)
	}

	return ParseConfigFromBytes(data)
}

// ParseConfigFromBytes parses configuration from byte data
func ParseConfigFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Environment variables are expanded before defaults so that an
	// unset variable falls back to the default value
	if err := postProcessParsedConfig(&cfg); err != nil {
		return nil, fmt.Errorf("failed to post-process config: %w", err)
	}

	if err := setConfigDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	if err := validateParsedConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setConfigDefaults sets default values for the configuration
func setConfigDefaults(cfg *Config) error {
	if cfg.Backend == nil {
		cfg.Backend = &Backend{}
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = DefaultRemoteBase
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = Duration(30 * time.Second)
	}

	if cfg.Proxy == nil {
		cfg.Proxy = &ProxyConfig{}
	}
	if cfg.Proxy.Addr == "" {
		cfg.Proxy.Addr = ":" + DefaultDevPort
	}
	if cfg.Proxy.Prefix == "" {
		cfg.Proxy.Prefix = DefaultProxyPrefix
	}
	if cfg.Proxy.DevPort == "" {
		cfg.Proxy.DevPort = DefaultDevPort
	}

	if cfg.Proxy.CORS == nil {
		cfg.Proxy.CORS = &CORSConfig{}
	}
	if len(cfg.Proxy.CORS.AllowedOrigins) == 0 {
		cfg.Proxy.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.Proxy.CORS.AllowedMethods) == 0 {
		cfg.Proxy.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.Proxy.CORS.AllowedHeaders) == 0 {
		cfg.Proxy.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}

	if cfg.MCP == nil {
		cfg.MCP = &MCPConfig{}
	}
	if cfg.MCP.ServerName == "" {
		cfg.MCP.ServerName = "Positions API"
	}
	if cfg.MCP.Version == "" {
		cfg.MCP.Version = "1.0.0"
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return nil
}

// validateParsedConfig validates the parsed configuration
func validateParsedConfig(cfg *Config) error {
	if err := validateBackend(cfg.Backend); err != nil {
		return fmt.Errorf("backend: %w", err)
	}

	if err := validateProxy(cfg.Proxy); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}

	validFormats := []string{"text", "json"}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		return fmt.Errorf("logging: invalid format '%s', must be one of: %s",
			cfg.Logging.Format, strings.Join(validFormats, ", "))
	}

	return nil
}

// validateBackend validates the remote backend configuration
func validateBackend(backend *Backend) error {
	u, err := url.Parse(backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url '%s': %w", backend.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url '%s' must be an absolute http(s) URL", backend.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url '%s' has no host", backend.BaseURL)
	}

	if backend.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	for i, header := range backend.DefaultHeaders {
		if header == nil || header.Name == "" {
			return fmt.Errorf("default header %d: name is required", i)
		}
	}

	return nil
}

// validateProxy validates the proxy route configuration
func validateProxy(proxy *ProxyConfig) error {
	if !strings.HasPrefix(proxy.Prefix, "/") {
		return fmt.Errorf("prefix '%s' must start with '/'", proxy.Prefix)
	}

	validMethods := []string{string(GET), string(POST), string(PUT), string(DELETE), string(OPTIONS)}
	for _, method := range proxy.CORS.AllowedMethods {
		if !slices.Contains(validMethods, strings.ToUpper(method)) {
			return fmt.Errorf("invalid CORS method '%s', must be one of: %s",
				method, strings.Join(validMethods, ", "))
		}
	}

	return nil
}

// postProcessParsedConfig expands environment variables in string values
func postProcessParsedConfig(cfg *Config) error {
	if cfg.Backend != nil {
		cfg.Backend.BaseURL = strings.TrimSuffix(os.ExpandEnv(cfg.Backend.BaseURL), "/")

		for _, header := range cfg.Backend.DefaultHeaders {
			if header == nil {
				continue
			}
			header.Name = os.ExpandEnv(header.Name)
			header.Value = os.ExpandEnv(header.Value)
		}
	}

	if cfg.Proxy != nil {
		cfg.Proxy.Addr = os.ExpandEnv(cfg.Proxy.Addr)
		cfg.Proxy.Prefix = os.ExpandEnv(cfg.Proxy.Prefix)
		cfg.Proxy.DevPort = os.ExpandEnv(cfg.Proxy.DevPort)
		for i, host := range cfg.Proxy.DevHosts {
			cfg.Proxy.DevHosts[i] = strings.ToLower(os.ExpandEnv(host))
		}
	}

	return nil
}

// expandPath expands environment variables and home directory in paths
func expandPath(path string) string {
	expanded := os.ExpandEnv(path)

	if strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			expanded = filepath.Join(home, expanded[2:])
		}
	}

	return expanded
}
