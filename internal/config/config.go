package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Chroma    ChromaConfig    `yaml:"chroma" mapstructure:"chroma"`
	Recon     ReconConfig     `yaml:"recon" mapstructure:"recon"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ChromaConfig holds the contract knowledge base settings.
type ChromaConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Collection string  `yaml:"collection" mapstructure:"collection"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ReconConfig configures reconciliation behavior.
type ReconConfig struct {
	FusionK          int    `yaml:"fusion_k" mapstructure:"fusion_k"`
	TopK             int    `yaml:"top_k" mapstructure:"top_k"`
	ContextN         int    `yaml:"context_n" mapstructure:"context_n"`
	ReportFormat     string `yaml:"report_format" mapstructure:"report_format"`
	PriceCacheHours  int    `yaml:"price_cache_hours" mapstructure:"price_cache_hours"`
	SkipReport       bool   `yaml:"skip_report" mapstructure:"skip_report"`
	GroundTruthSheet string `yaml:"ground_truth_sheet" mapstructure:"ground_truth_sheet"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentInvoices int `yaml:"max_concurrent_invoices" mapstructure:"max_concurrent_invoices"`
}

// OutputConfig configures where reconciliation artifacts land.
type OutputConfig struct {
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}

// ServerConfig configures the webhook server.
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
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs an entry, even a zero one: viper only
	// surfaces env vars for keys it already knows about, so a key with
	// no default would be invisible to AutomaticEnv.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "recon.db")
	v.SetDefault("store.max_conns", 0)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("recon.skip_report", false)
	v.SetDefault("recon.ground_truth_sheet", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_invoices", 5)
	v.SetDefault("output.base_dir", "./invoice_recon_output")
	v.SetDefault("chroma.base_url", "http://localhost:8000")
	v.SetDefault("chroma.collection", "contracts")
	v.SetDefault("chroma.rate_limit", 10.0)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4000)
	v.SetDefault("recon.fusion_k", 4)
	v.SetDefault("recon.top_k", 4)
	v.SetDefault("recon.context_n", 8)
	v.SetDefault("recon.report_format", "Markdown")
	v.SetDefault("recon.price_cache_hours", 24)

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

// Validate checks that configuration required by the given command
// scope is present. The "recon" scope covers every command that calls
// the Anthropic API.
func (c *Config) Validate(scope string) error {
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("database URL is required for the postgres driver (RECON_STORE_DATABASE_URL)")
	}
	if scope == "recon" && c.Anthropic.Key == "" {
		return eris.New("anthropic API key is required (RECON_ANTHROPIC_KEY)")
	}
	return nil
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
