// Package config loads and validates analyzer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Pool     PoolConfig     `mapstructure:"pool"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// PoolConfig governs the analysis worker pool.
type PoolConfig struct {
	MinWorkers         int `mapstructure:"min_workers"`
	MaxWorkers         int `mapstructure:"max_workers"`
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds"`
	MaxQueue           int `mapstructure:"max_queue"`
}

// AnalysisConfig governs orchestrator behavior.
type AnalysisConfig struct {
	BatchSize              int     `mapstructure:"batch_size"`
	StreamBatchSize        int     `mapstructure:"stream_batch_size"`
	CacheCapacity          int     `mapstructure:"cache_capacity"`
	CacheTTLSeconds        int     `mapstructure:"cache_ttl_seconds"`
	ConfidenceThreshold    float64 `mapstructure:"confidence_threshold"`
	EnableCrossAnalysis    bool    `mapstructure:"enable_cross_analysis"`
	EnableEmbeddings       bool    `mapstructure:"enable_embeddings"`
	MaxWorkers             int     `mapstructure:"max_workers"`
	TaskTimeoutSeconds     int     `mapstructure:"task_timeout_seconds"`
	ShutdownTimeoutSeconds int     `mapstructure:"shutdown_timeout_seconds"`
	RuleWeight             float64 `mapstructure:"rule_weight"`
	FeatureWeight          float64 `mapstructure:"feature_weight"`
}

// DBConfig controls access to the optional result store. An empty DSN
// selects the no-op store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAGELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("pool.min_workers", 2)
	v.SetDefault("pool.max_workers", 16)
	v.SetDefault("pool.idle_timeout_seconds", 60)
	v.SetDefault("pool.max_queue", 256)
	v.SetDefault("analysis.batch_size", 50)
	v.SetDefault("analysis.stream_batch_size", 10)
	v.SetDefault("analysis.cache_capacity", 1000)
	v.SetDefault("analysis.cache_ttl_seconds", 3600)
	v.SetDefault("analysis.confidence_threshold", 0.5)
	v.SetDefault("analysis.enable_cross_analysis", true)
	v.SetDefault("analysis.enable_embeddings", false)
	v.SetDefault("analysis.max_workers", 16)
	v.SetDefault("analysis.task_timeout_seconds", 30)
	v.SetDefault("analysis.shutdown_timeout_seconds", 10)
	v.SetDefault("analysis.rule_weight", 0.4)
	v.SetDefault("analysis.feature_weight", 0.6)
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Pool.MaxWorkers <= 0 {
		return fmt.Errorf("pool.max_workers must be > 0")
	}
	if c.Pool.MinWorkers < 0 || c.Pool.MinWorkers > c.Pool.MaxWorkers {
		return fmt.Errorf("pool.min_workers must be in [0, pool.max_workers]")
	}
	if c.Analysis.BatchSize <= 0 {
		return fmt.Errorf("analysis.batch_size must be > 0")
	}
	if c.Analysis.MaxWorkers <= 0 {
		return fmt.Errorf("analysis.max_workers must be > 0")
	}
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 1 {
		return fmt.Errorf("analysis.confidence_threshold must be in [0,1]")
	}
	if c.Analysis.RuleWeight < 0 || c.Analysis.FeatureWeight < 0 {
		return fmt.Errorf("analysis blend weights must be >= 0")
	}
	if c.Analysis.RuleWeight+c.Analysis.FeatureWeight == 0 {
		return fmt.Errorf("analysis blend weights must not both be zero")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// CacheTTL converts the cache TTL config to a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Analysis.CacheTTLSeconds) * time.Second
}

// TaskTimeout converts the per-task timeout config to a duration.
func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.Analysis.TaskTimeoutSeconds) * time.Second
}

// ShutdownTimeout converts the pool teardown limit to a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Analysis.ShutdownTimeoutSeconds) * time.Second
}

// IdleTimeout converts the worker idle timeout config to a duration.
func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Pool.IdleTimeoutSeconds) * time.Second
}
