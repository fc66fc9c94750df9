package web

import (
	"github.com/cnpj-cowork/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Auth      AuthConfig      `json:"auth"`
	Features  FeatureConfig   `json:"features"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKey string `json:"-"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ExportEnabled bool `json:"export_enabled"`
}

// RateLimitConfig bounds search throughput; PerSecond <= 0 disables it
type RateLimitConfig struct {
	PerSecond float64 `json:"per_second"`
	Burst     int     `json:"burst"`
}

// FromApp derives the web configuration from the application configuration
func FromApp(cfg *config.AppConfig) *Config {
	return &Config{
		Server: ServerConfig{
			Port: cfg.Web.Port,
			Host: cfg.Web.Host,
		},
		Auth: AuthConfig{
			APIKey: cfg.Web.APIKey,
		},
		Features: FeatureConfig{
			ExportEnabled: cfg.Web.ExportEnable,
		},
		RateLimit: RateLimitConfig{
			PerSecond: cfg.Web.SearchRate,
			Burst:     cfg.Web.SearchBurst,
		},
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Features: FeatureConfig{
			ExportEnabled: true,
		},
		RateLimit: RateLimitConfig{
			PerSecond: 5,
			Burst:     10,
		},
	}
}
