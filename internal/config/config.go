// Package config loads and validates engine configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Crawler    CrawlerConfig    `mapstructure:"crawler"`
	Politeness PolitenessConfig `mapstructure:"politeness"`
	Index      IndexConfig      `mapstructure:"index"`
	Rank       RankConfig       `mapstructure:"rank"`
	Snippet    SnippetConfig    `mapstructure:"snippet"`
	DB         DBConfig         `mapstructure:"db"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port       int `mapstructure:"port"`
	MaxResults int `mapstructure:"max_results"`
}

// CrawlerConfig governs the frontier and fetch pipeline.
type CrawlerConfig struct {
	Seeds            []string `mapstructure:"seeds"`
	UserAgent        string   `mapstructure:"user_agent"`
	Concurrency      int      `mapstructure:"concurrency"`
	MaxDepth         int      `mapstructure:"max_depth"`
	MaxPages         int      `mapstructure:"max_pages"`
	TimeoutSeconds   int      `mapstructure:"timeout_seconds"`
	FollowExternal   bool     `mapstructure:"follow_external"`
	MaxRetries       int      `mapstructure:"max_retries"`
	BackoffInitialMs int      `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int      `mapstructure:"backoff_max_ms"`
	QueueDepth       int      `mapstructure:"queue_depth"`
}

// PolitenessConfig controls robots handling and per-host pacing.
type PolitenessConfig struct {
	RespectRobots  bool `mapstructure:"respect_robots"`
	FailOpen       bool `mapstructure:"fail_open"`
	RobotsTTLHours int  `mapstructure:"robots_ttl_hours"`
	DelayMs        int  `mapstructure:"delay_ms"`
}

// IndexConfig sets snapshot persistence behavior.
type IndexConfig struct {
	SnapshotPath  string `mapstructure:"snapshot_path"`
	SaveEveryDocs int    `mapstructure:"save_every_docs"`
}

// RankConfig selects the ranking strategy and field boosts.
type RankConfig struct {
	Algorithm    string  `mapstructure:"algorithm"`
	TitleBoost   float64 `mapstructure:"title_boost"`
	HeadingBoost float64 `mapstructure:"heading_boost"`
}

// SnippetConfig bounds snippet extraction.
type SnippetConfig struct {
	MaxLength int `mapstructure:"max_length"`
}

// DBConfig controls access to the relational document store. An empty DSN
// selects the in-memory store.
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
	v.SetEnvPrefix("PAGEHOUND")
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
	v.SetDefault("server.max_results", 20)
	v.SetDefault("crawler.user_agent", "pagehound-bot/0.1 (+https://github.com/pagehound/pagehound)")
	v.SetDefault("crawler.concurrency", 10)
	v.SetDefault("crawler.max_depth", 3)
	v.SetDefault("crawler.max_pages", 1000)
	v.SetDefault("crawler.timeout_seconds", 10)
	v.SetDefault("crawler.follow_external", false)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.backoff_initial_ms", 250)
	v.SetDefault("crawler.backoff_max_ms", 5000)
	v.SetDefault("crawler.queue_depth", 4096)
	v.SetDefault("politeness.respect_robots", true)
	v.SetDefault("politeness.fail_open", false)
	v.SetDefault("politeness.robots_ttl_hours", 24)
	v.SetDefault("politeness.delay_ms", 500)
	v.SetDefault("index.snapshot_path", "data/index.json")
	v.SetDefault("index.save_every_docs", 10)
	v.SetDefault("rank.algorithm", "tfidf")
	v.SetDefault("rank.title_boost", 2.0)
	v.SetDefault("rank.heading_boost", 1.5)
	v.SetDefault("snippet.max_length", 200)
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0")
	}
	if c.Politeness.RobotsTTLHours <= 0 {
		return fmt.Errorf("politeness.robots_ttl_hours must be > 0")
	}
	if c.Rank.Algorithm != "tfidf" {
		return fmt.Errorf("rank.algorithm %q is not supported", c.Rank.Algorithm)
	}
	if c.Rank.TitleBoost <= 0 || c.Rank.HeadingBoost <= 0 {
		return fmt.Errorf("rank boosts must be > 0")
	}
	if c.Snippet.MaxLength <= 0 {
		return fmt.Errorf("snippet.max_length must be > 0")
	}
	return nil
}

// RequestTimeout converts the fetch timeout to a duration.
func (c CrawlerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the base retry delay.
func (c CrawlerConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry delay ceiling.
func (c CrawlerConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// RobotsTTL returns how long a cached robots policy stays valid.
func (c PolitenessConfig) RobotsTTL() time.Duration {
	return time.Duration(c.RobotsTTLHours) * time.Hour
}

// Delay returns the minimum inter-request interval per host.
func (c PolitenessConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}
