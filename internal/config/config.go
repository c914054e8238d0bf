package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Salesforce  SalesforceConfig  `yaml:"salesforce" mapstructure:"salesforce"`
	CompanyData CompanyDataConfig `yaml:"company_data" mapstructure:"company_data"`
	Geocode     GeocodeConfig     `yaml:"geocode" mapstructure:"geocode"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity  PerplexityConfig  `yaml:"perplexity" mapstructure:"perplexity"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Scoring     ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Sync        SyncConfig        `yaml:"sync" mapstructure:"sync"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CompanyDataConfig holds the company information API settings.
type CompanyDataConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GeocodeConfig configures address geocoding and the distance reference
// point.
type GeocodeConfig struct {
	GoogleKey    string  `yaml:"google_key" mapstructure:"google_key"`
	NominatimURL string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	ReferenceLat float64 `yaml:"reference_lat" mapstructure:"reference_lat"`
	ReferenceLon float64 `yaml:"reference_lon" mapstructure:"reference_lon"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// RedisConfig configures the durable enrichment cache. An empty URL disables
// it.
type RedisConfig struct {
	URL      string `yaml:"url" mapstructure:"url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// CacheConfig configures the in-process enrichment cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// ScoringConfig selects the scoring profile. ProfilePath wins over Profile.
type ScoringConfig struct {
	Profile     string `yaml:"profile" mapstructure:"profile"`
	ProfilePath string `yaml:"profile_path" mapstructure:"profile_path"`
}

// SyncConfig configures the CRM sync pipeline.
type SyncConfig struct {
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Limit       int    `yaml:"limit" mapstructure:"limit"`
	ScoreObject string `yaml:"score_object" mapstructure:"score_object"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadscore.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 20.0)
	v.SetDefault("company_data.base_url", "https://api.companydata.se/v1")
	v.SetDefault("company_data.rate_limit", 5.0)
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "leadscore-cli/1.0")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.reference_lat", 59.3293)
	v.SetDefault("geocode.reference_lon", 18.0686)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("redis.ttl_hours", 168)
	v.SetDefault("cache.max_entries", 5000)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("scoring.profile", "canonical")
	v.SetDefault("sync.concurrency", 5)
	v.SetDefault("sync.limit", 1000)
	v.SetDefault("sync.score_object", "Contact")

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

// Validate checks the settings a command needs before it runs.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "score":
	case "sync":
		errs = append(errs, c.validateSalesforce()...)
		errs = append(errs, c.validateStore()...)
		if c.Sync.Concurrency < 1 || c.Sync.Concurrency > 50 {
			errs = append(errs, "sync.concurrency must be between 1 and 50")
		}
		if c.Sync.Limit < 0 {
			errs = append(errs, "sync.limit must be >= 0")
		}
	case "leaderboard":
		errs = append(errs, c.validateSalesforce()...)
	case "icp", "runs":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Scoring.ProfilePath == "" && c.Scoring.Profile == "" {
		errs = append(errs, "scoring.profile or scoring.profile_path is required")
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, "cache.max_entries must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSalesforce() []string {
	var errs []string
	if c.Salesforce.ClientID == "" {
		errs = append(errs, "salesforce.client_id is required")
	}
	if c.Salesforce.Username == "" {
		errs = append(errs, "salesforce.username is required")
	}
	if c.Salesforce.KeyPath == "" {
		errs = append(errs, "salesforce.key_path is required")
	}
	return errs
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
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
