package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads the orchestrator configuration. It reads config.yml from the
// first standard location that exists, layers a .env file on top, binds
// environment variables (ORCH_SERVER_PORT overrides server.port, etc.), and
// applies defaults before validating.
func Load(opts ...LoadOption) (*Config, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	configFile := lo.configFile
	if configFile == "" {
		configFile = findFirst(
			"./cmd/orchestrator/config.yml",
			"./config/config.yml",
			"./config.yml",
		)
	}
	envFile := lo.envFile
	if envFile == "" {
		envFile = findFirst(".env.orchestrator", ".env")
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "[config] warning: failed to load %s: %v\n", envFile, err)
		}
	}

	v.SetEnvPrefix("ORCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Legacy flat env vars take precedence over nothing, not over config.yml.
	applyLegacyEnv(&cfg)

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type loadOptions struct {
	configFile string
	envFile    string
}

// LoadOption is a functional option for Load.
type LoadOption func(*loadOptions)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoadOption {
	return func(lo *loadOptions) { lo.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoadOption {
	return func(lo *loadOptions) { lo.envFile = path }
}

// bindEnvKeys pre-binds nested keys so AutomaticEnv sees them even when they
// are absent from the YAML file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port",
		"logging.level", "logging.format",
		"llm.groq_api_key", "llm.groq_model",
		"search.provider", "search.tavily_api_key", "search.serpapi_api_key", "search.prefer_lang",
		"webhook.url", "webhook.secret",
		"artifacts.dir",
		"metrics.enabled", "metrics.endpoint",
		"pipeline.pace_ms",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// applyLegacyEnv honors the flat variable names used by earlier deployments
// (GROQ_API_KEY, TAVILY_API_KEY, ...) when the structured keys are unset.
func applyLegacyEnv(cfg *Config) {
	setIfEmpty(&cfg.LLM.GroqAPIKey, "GROQ_API_KEY")
	setIfEmpty(&cfg.LLM.GroqModel, "GROQ_MODEL")
	setIfEmpty(&cfg.Search.Provider, "SEARCH_PROVIDER")
	setIfEmpty(&cfg.Search.TavilyAPIKey, "TAVILY_API_KEY")
	setIfEmpty(&cfg.Search.SerpAPIAPIKey, "SERPAPI_API_KEY")
	setIfEmpty(&cfg.Search.PreferLang, "PREFER_LANG")
	setIfEmpty(&cfg.Webhook.URL, "N8N_WEBHOOK_URL")
	setIfEmpty(&cfg.Webhook.Secret, "N8N_SECRET")
	if cfg.Pipeline.PaceMS == 0 {
		if v := os.Getenv("SIM_DELAY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.Pipeline.PaceMS = n
			}
		}
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst == "" {
		if v := os.Getenv(envKey); v != "" {
			*dst = v
		}
	}
}

func findFirst(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
