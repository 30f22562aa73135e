package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	Grounding GroundingConfig `mapstructure:"grounding" yaml:"grounding"`
	Backend   BackendConfig   `mapstructure:"backend" yaml:"backend"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// LoggerConfig configures the zap logger and its optional rotating file.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// LLMConfig selects and tunes the vision/language model.
type LLMConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// AgentConfig tunes the plan-act-verify loop.
type AgentConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	MaxCycles  int           `mapstructure:"max_cycles" yaml:"max_cycles"`
	TypeDelay  time.Duration `mapstructure:"type_delay" yaml:"type_delay"`
	TypeMode   string        `mapstructure:"type_mode" yaml:"type_mode"`
	RunTimeout time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
}

// GroundingConfig tunes screenshot grounding.
type GroundingConfig struct {
	MaxImageWidth int           `mapstructure:"max_image_width" yaml:"max_image_width"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	CacheSize     int           `mapstructure:"cache_size" yaml:"cache_size"`
}

// BackendConfig selects where input events go.
type BackendConfig struct {
	Kind    string        `mapstructure:"kind" yaml:"kind"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
}

// BrowserConfig configures the browser backend.
type BrowserConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	Width    int    `mapstructure:"width" yaml:"width"`
	Height   int    `mapstructure:"height" yaml:"height"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport   string `mapstructure:"transport" yaml:"transport"`
	Port        int    `mapstructure:"port" yaml:"port"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	BackendDesktop = "desktop"
	BackendBrowser = "browser"

	TypeModeKeys  = "keys"
	TypeModePaste = "paste"
)

// EnvPrefix prefixes environment overrides, e.g. DESKTOP_PILOT_LLM_MODEL.
const EnvPrefix = "DESKTOP_PILOT"

// NewDefaultConfig returns a config populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "desktop-pilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- LLM --
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", "gemini-2.0-flash-exp")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "90s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.requests_per_second", 0)

	// -- Agent --
	v.SetDefault("agent.max_retries", 0)
	v.SetDefault("agent.max_cycles", 10)
	v.SetDefault("agent.type_delay", "30ms")
	v.SetDefault("agent.type_mode", TypeModeKeys)
	v.SetDefault("agent.run_timeout", "30m")

	// -- Grounding --
	v.SetDefault("grounding.max_image_width", 0)
	v.SetDefault("grounding.cache_ttl", "0s")
	v.SetDefault("grounding.cache_size", 32)

	// -- Backend --
	v.SetDefault("backend.kind", BackendDesktop)
	v.SetDefault("backend.browser.url", "about:blank")
	v.SetDefault("backend.browser.headless", false)
	v.SetDefault("backend.browser.width", 1280)
	v.SetDefault("backend.browser.height", 800)

	// -- Server --
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_addr", "")
}

// Load reads .env, the config file and environment overrides into v and
// returns the validated result. An empty configFile searches the working
// directory and ~/.config/desktop-pilot for desktop-pilot.yaml; not finding
// one is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("desktop-pilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/desktop-pilot")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = APIKeyFromEnv(cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// APIKeyFromEnv returns the conventional API key variable for provider.
func APIKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY", "OPENROUTER_API_KEY"}
	}
	for _, name := range names {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// Validate checks the configuration for sane values. A missing API key is
// not a validation error; commands that need the model report it.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must not be negative")
	}
	if c.Agent.MaxRetries < 0 {
		return fmt.Errorf("agent.max_retries must not be negative")
	}
	if c.Agent.MaxCycles < 1 {
		return fmt.Errorf("agent.max_cycles must be at least 1")
	}
	if c.Agent.TypeDelay < 0 {
		return fmt.Errorf("agent.type_delay must not be negative")
	}
	switch c.Agent.TypeMode {
	case TypeModeKeys, TypeModePaste:
	default:
		return fmt.Errorf("agent.type_mode must be %q or %q, got %q", TypeModeKeys, TypeModePaste, c.Agent.TypeMode)
	}
	switch c.Backend.Kind {
	case BackendDesktop, BackendBrowser:
	default:
		return fmt.Errorf("backend.kind must be %q or %q, got %q", BackendDesktop, BackendBrowser, c.Backend.Kind)
	}
	if c.Grounding.MaxImageWidth < 0 {
		return fmt.Errorf("grounding.max_image_width must not be negative")
	}
	if c.Grounding.CacheTTL > 0 && c.Grounding.CacheSize < 1 {
		return fmt.Errorf("grounding.cache_size must be positive when caching is enabled")
	}
	switch c.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("server.transport must be stdio or streamable-http, got %q", c.Server.Transport)
	}
	return nil
}
