// Package config loads the server configuration from a YAML file and the
// environment. Environment variables override file values so deployments can
// ship one config file and vary secrets per environment.
//
// Example usage:
//
//	cfg, err := config.Load("openapi-mcp.yaml")
//	if err != nil { log.Fatal(err) }
//	if err := cfg.Validate(); err != nil { log.Fatal(err) }
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Transport names accepted under server.transport.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

// DefaultRequestTimeout applies when request_timeout is unset.
const DefaultRequestTimeout = 30 * time.Second

// AuthConfig is the auth block. Type "none" (or an absent block) disables
// authentication; "oauth2" enables the authorization-code flow with PKCE.
type AuthConfig struct {
	Type             string   `yaml:"type"`
	ClientID         string   `yaml:"client_id"`
	ClientSecret     string   `yaml:"client_secret"`
	AuthorizationURL string   `yaml:"authorization_url"`
	TokenURL         string   `yaml:"token_url"`
	RedirectURI      string   `yaml:"redirect_uri"`
	Scopes           []string `yaml:"scopes"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
	BasePath  string `yaml:"base_path"`
}

// Config is the full configuration surface.
type Config struct {
	Name           string        `yaml:"name"`
	Version        string        `yaml:"version"`
	OpenAPISpec    string        `yaml:"openapi_spec"`
	BaseURL        string        `yaml:"base_url"`
	Auth           AuthConfig    `yaml:"auth"`
	Server         ServerConfig  `yaml:"server"`
	RequestTimeout time.Duration `yaml:"-"`

	// RequestTimeoutRaw accepts either a duration string ("45s") or a
	// number of seconds.
	RequestTimeoutRaw any `yaml:"request_timeout"`
}

// Default returns a Config with the defaults applied.
func Default() Config {
	return Config{
		Name:           "openapi-mcp",
		Version:        "0.1.0",
		Auth:           AuthConfig{Type: "none"},
		Server:         ServerConfig{Transport: TransportStdio, Port: 8080},
		RequestTimeout: DefaultRequestTimeout,
	}
}

// Load reads a YAML config file, applies environment overrides on top, and
// normalizes the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// FromEnv builds a Config from environment variables alone, for deployments
// without a config file.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays recognized environment variables.
func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Name, "MCP_NAME")
	setStr(&c.Version, "MCP_VERSION")
	setStr(&c.OpenAPISpec, "OPENAPI_SPEC")
	setStr(&c.BaseURL, "OPENAPI_BASE_URL")
	setStr(&c.Server.Transport, "MCP_TRANSPORT")
	setStr(&c.Server.BasePath, "MCP_BASE_PATH")
	if v := os.Getenv("MCP_PORT"); v != "" {
		if port, err := cast.ToIntE(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := parseTimeout(v); err == nil {
			c.RequestTimeout = d
		}
	}
	setStr(&c.Auth.Type, "OAUTH_TYPE")
	setStr(&c.Auth.ClientID, "OAUTH_CLIENT_ID")
	setStr(&c.Auth.ClientSecret, "OAUTH_CLIENT_SECRET")
	setStr(&c.Auth.AuthorizationURL, "OAUTH_AUTHORIZATION_URL")
	setStr(&c.Auth.TokenURL, "OAUTH_TOKEN_URL")
	setStr(&c.Auth.RedirectURI, "OAUTH_REDIRECT_URI")
	if v := os.Getenv("OAUTH_SCOPES"); v != "" {
		c.Auth.Scopes = strings.Fields(v)
	}
}

// normalize coerces the raw timeout field and fills defaults the YAML
// decoder may have zeroed.
func (c *Config) normalize() error {
	if c.RequestTimeoutRaw != nil {
		d, err := parseTimeout(c.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("config: request_timeout: %w", err)
		}
		c.RequestTimeout = d
		c.RequestTimeoutRaw = nil
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Auth.Type == "" {
		c.Auth.Type = "none"
	}
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	return nil
}

// parseTimeout accepts a duration string ("45s") or a bare number of
// seconds (45, "45", 45.5).
func parseTimeout(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
	}
	secs, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %v", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate checks the configuration for contradictions before the server
// starts.
func (c *Config) Validate() error {
	if c.OpenAPISpec == "" {
		return fmt.Errorf("config: openapi_spec is required (file path or URL)")
	}
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP, TransportSSE:
	default:
		return fmt.Errorf("config: unknown server.transport %q (want %s, %s or %s)",
			c.Server.Transport, TransportStdio, TransportStreamableHTTP, TransportSSE)
	}
	if c.Server.Transport != TransportStdio && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Auth.Type {
	case "none":
	case "oauth2":
		if c.Auth.ClientID == "" {
			return fmt.Errorf("config: auth.client_id is required for oauth2")
		}
		if c.Auth.AuthorizationURL == "" || c.Auth.TokenURL == "" {
			return fmt.Errorf("config: auth.authorization_url and auth.token_url are required for oauth2")
		}
		if c.Auth.RedirectURI == "" {
			return fmt.Errorf("config: auth.redirect_uri is required for oauth2")
		}
	default:
		return fmt.Errorf("config: unknown auth.type %q (want none or oauth2)", c.Auth.Type)
	}
	return nil
}

// OAuthEnabled reports whether the oauth2 flow is configured.
func (c *Config) OAuthEnabled() bool {
	return c.Auth.Type == "oauth2"
}
