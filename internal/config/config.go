package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scopelens/intel-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Apify    ApifyConfig    `yaml:"apify" mapstructure:"apify"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// ApifyConfig holds crawl provider settings.
type ApifyConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	Actor      string  `yaml:"actor" mapstructure:"actor"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	FetchLimit int     `yaml:"fetch_limit" mapstructure:"fetch_limit"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// EnrichConfig holds AI enrichment provider settings.
type EnrichConfig struct {
	Driver              string  `yaml:"driver" mapstructure:"driver"`
	AnthropicKey        string  `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel      string  `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	OpenAIKey           string  `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel         string  `yaml:"openai_model" mapstructure:"openai_model"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
}

// PipelineConfig configures crawl run orchestration.
type PipelineConfig struct {
	Workers           int `yaml:"workers" mapstructure:"workers"`
	RunTimeoutSecs    int `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
	EnrichTimeoutSecs int `yaml:"enrich_timeout_secs" mapstructure:"enrich_timeout_secs"`
	FetchMaxAttempts  int `yaml:"fetch_max_attempts" mapstructure:"fetch_max_attempts"`
	EnrichMaxAttempts int `yaml:"enrich_max_attempts" mapstructure:"enrich_max_attempts"`
}

// RunTimeout returns the run deadline as a duration.
func (c PipelineConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSecs) * time.Second
}

// EnrichTimeout returns the per-call enrichment deadline as a duration.
func (c PipelineConfig) EnrichTimeout() time.Duration {
	return time.Duration(c.EnrichTimeoutSecs) * time.Second
}

// BatchConfig configures multi-profile crawls.
type BatchConfig struct {
	MaxConcurrentProfiles int `yaml:"max_concurrent_profiles" mapstructure:"max_concurrent_profiles"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOPELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_profiles", 4)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.actor", "apimaestro~linkedin-company-posts")
	v.SetDefault("apify.fetch_limit", 100)
	v.SetDefault("apify.rate_limit", 1.0)
	v.SetDefault("enrich.driver", "anthropic")
	v.SetDefault("enrich.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("enrich.openai_model", "gpt-4o-mini")
	v.SetDefault("enrich.confidence_threshold", 0.6)
	v.SetDefault("pipeline.workers", 5)
	v.SetDefault("pipeline.run_timeout_secs", 300)
	v.SetDefault("pipeline.enrich_timeout_secs", 30)
	v.SetDefault("pipeline.fetch_max_attempts", 3)
	v.SetDefault("pipeline.enrich_max_attempts", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
