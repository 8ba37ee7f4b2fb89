package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServer    = "http://localhost:8000"
	defaultHost      = "localhost"
	defaultPort      = "8000"
	defaultPublicURL = "http://localhost:8000"

	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Server  string      `yaml:"server"`
	Verbose bool        `yaml:"verbose"`
	Serve   ServeConfig `yaml:"serve"`
}

// ServeConfig configures the web status surface started by the serve command.
type ServeConfig struct {
	Host                 string        `yaml:"host"`
	Port                 string        `yaml:"port"`
	PublicURL            string        `yaml:"public_url"`
	Title                string        `yaml:"title"`
	ShutdownGracePeriod  time.Duration `yaml:"-"`
	ReadHeaderTimeout    time.Duration `yaml:"-"`
	WriteTimeout         time.Duration `yaml:"-"`
	IdleTimeout          time.Duration `yaml:"-"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// Addr returns the host:port pair the serve command binds to.
func (s ServeConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Server string    `yaml:"server"`
	Serve  yamlServe `yaml:"serve"`
}

// yamlServe represents the serve section in YAML.
type yamlServe struct {
	Host                 string        `yaml:"host"`
	Port                 string        `yaml:"port"`
	PublicURL            string        `yaml:"public_url"`
	Title                string        `yaml:"title"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Server         *string
	Host           *string
	Port           *string
	PublicURL      *string
	Title          *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables first, YAML overrides them
	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Server: defaultServer,
		Serve: ServeConfig{
			Host:                 defaultHost,
			Port:                 defaultPort,
			PublicURL:            defaultPublicURL,
			ShutdownGracePeriod:  10 * time.Second,
			ReadHeaderTimeout:    5 * time.Second,
			WriteTimeout:         15 * time.Second,
			IdleTimeout:          60 * time.Second,
			EnableRequestLogging: true,
			RateLimitRPS:         defaultRateLimitRPS,
			RateLimitBurst:       defaultRateLimitBurst,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Server != "" {
		cfg.Server = yamlCfg.Server
	}

	serve := yamlCfg.Serve
	if serve.Host != "" {
		cfg.Serve.Host = serve.Host
	}
	if serve.Port != "" {
		cfg.Serve.Port = serve.Port
	}
	if serve.PublicURL != "" {
		cfg.Serve.PublicURL = serve.PublicURL
	}
	if serve.Title != "" {
		cfg.Serve.Title = serve.Title
	}

	if serve.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(serve.ShutdownGracePeriod); err == nil {
			cfg.Serve.ShutdownGracePeriod = d
		}
	}
	if serve.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(serve.ReadHeaderTimeout); err == nil {
			cfg.Serve.ReadHeaderTimeout = d
		}
	}
	if serve.WriteTimeout != "" {
		if d, err := time.ParseDuration(serve.WriteTimeout); err == nil {
			cfg.Serve.WriteTimeout = d
		}
	}
	if serve.IdleTimeout != "" {
		if d, err := time.ParseDuration(serve.IdleTimeout); err == nil {
			cfg.Serve.IdleTimeout = d
		}
	}

	if serve.EnableRequestLogging != nil {
		cfg.Serve.EnableRequestLogging = *serve.EnableRequestLogging
	}
	if serve.RateLimit.RPS != nil && *serve.RateLimit.RPS >= 0 {
		cfg.Serve.RateLimitRPS = *serve.RateLimit.RPS
	}
	if serve.RateLimit.Burst != nil && *serve.RateLimit.Burst >= 0 {
		cfg.Serve.RateLimitBurst = *serve.RateLimit.Burst
	}
}

// applyEnvConfig applies environment variable configuration. The container
// packaging historically exported both prefixed and unprefixed names; the
// prefixed form wins when both are set.
func applyEnvConfig(cfg *Config) {
	if server := strings.TrimSpace(os.Getenv("METASKING_SERVER")); server != "" {
		cfg.Server = server
	}

	if host := firstEnv("METASKING_TUI_HOST", "HOST"); host != "" {
		cfg.Serve.Host = host
	}
	if port := firstEnv("METASKING_TUI_PORT", "PORT"); port != "" {
		cfg.Serve.Port = port
	}
	if publicURL := firstEnv("METASKING_TUI_PUBLIC_URL", "PUBLIC_URL"); publicURL != "" {
		cfg.Serve.PublicURL = publicURL
	}
	if title := firstEnv("METASKING_TUI_TITLE", "TITLE"); title != "" {
		cfg.Serve.Title = title
	}

	if rps := strings.TrimSpace(os.Getenv("METASKING_TUI_RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.Serve.RateLimitRPS = value
		}
	}
	if burst := strings.TrimSpace(os.Getenv("METASKING_TUI_RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.Serve.RateLimitBurst = value
		}
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Server != nil && *overrides.Server != "" {
		cfg.Server = *overrides.Server
	}
	if overrides.Host != nil && *overrides.Host != "" {
		cfg.Serve.Host = *overrides.Host
	}
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Serve.Port = *overrides.Port
	}
	if overrides.PublicURL != nil && *overrides.PublicURL != "" {
		cfg.Serve.PublicURL = *overrides.PublicURL
	}
	if overrides.Title != nil && *overrides.Title != "" {
		cfg.Serve.Title = *overrides.Title
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.Serve.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.Serve.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	parsed, err := url.Parse(cfg.Server)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server address %q must be a valid URL", cfg.Server)
	}
	if cfg.Serve.Port == "" {
		return fmt.Errorf("serve port cannot be empty")
	}
	if _, err := strconv.Atoi(cfg.Serve.Port); err != nil {
		return fmt.Errorf("serve port %q must be numeric", cfg.Serve.Port)
	}
	if cfg.Serve.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.Serve.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	return nil
}
