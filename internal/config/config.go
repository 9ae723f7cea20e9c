// Package config loads and validates the orchestrator configuration from
// config.yml and environment variables.
package config

import (
	"fmt"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// Config is the full configuration for the research orchestrator.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Webhook   WebhookConfig   `yaml:"webhook" mapstructure:"webhook"`
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Events    EventsConfig    `yaml:"events" mapstructure:"events"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
}

// PipelineConfig holds run execution tuning.
type PipelineConfig struct {
	// PaceMS inserts an artificial delay between stages so demo viewers can
	// follow the event stream. Zero disables it.
	PaceMS int `yaml:"pace_ms" mapstructure:"pace_ms"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string   `yaml:"host" mapstructure:"host"`
	Port         int      `yaml:"port" mapstructure:"port"`
	ReadTimeout  int      `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int      `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int      `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	CORSOrigins  []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LLMConfig holds the generative-text backend configuration.
type LLMConfig struct {
	GroqAPIKey string `yaml:"groq_api_key" mapstructure:"groq_api_key"`
	GroqModel  string `yaml:"groq_model" mapstructure:"groq_model"`
}

// SearchConfig holds search provider configuration.
type SearchConfig struct {
	// Provider is the preferred provider name (tavily | serpapi | duckduckgo).
	Provider      string `yaml:"provider" mapstructure:"provider"`
	TavilyAPIKey  string `yaml:"tavily_api_key" mapstructure:"tavily_api_key"`
	SerpAPIAPIKey string `yaml:"serpapi_api_key" mapstructure:"serpapi_api_key"`
	PreferLang    string `yaml:"prefer_lang" mapstructure:"prefer_lang"`
}

// WebhookConfig holds the outbound notification configuration.
type WebhookConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// ArtifactsConfig holds report artifact storage configuration.
type ArtifactsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// MetricsConfig holds the OTLP metrics exporter configuration.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"` // host:port, e.g. "localhost:4318"
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
}

// EventsConfig holds event bus tuning.
type EventsConfig struct {
	// SubscriberBuffer is the per-subscriber queue capacity.
	SubscriberBuffer int `yaml:"subscriber_buffer" mapstructure:"subscriber_buffer"`
	// KeepAliveSeconds is the SSE keep-alive interval on an idle stream.
	KeepAliveSeconds int `yaml:"keepalive_seconds" mapstructure:"keepalive_seconds"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "research-orchestrator"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	if c.Server.Port == 0 {
		c.Server.Port = 9009
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	if c.LLM.GroqModel == "" {
		c.LLM.GroqModel = "llama-3.1-8b-instant"
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "tavily"
	}
	if c.Search.PreferLang == "" {
		c.Search.PreferLang = "en"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "artifacts"
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
		c.Metrics.Insecure = true
	}
	if c.Events.SubscriberBuffer == 0 {
		c.Events.SubscriberBuffer = 64
	}
	if c.Events.KeepAliveSeconds == 0 {
		c.Events.KeepAliveSeconds = 15
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Server.Port)
	}
	switch c.Search.Provider {
	case "tavily", "serpapi", "duckduckgo":
	default:
		return fmt.Errorf("search.provider must be one of [tavily, serpapi, duckduckgo] (got: %s)", c.Search.Provider)
	}
	if c.Events.SubscriberBuffer < 1 {
		return fmt.Errorf("events.subscriber_buffer must be positive (got: %d)", c.Events.SubscriberBuffer)
	}
	return nil
}
