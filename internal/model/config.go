package model

import "time"

// Config is the full application configuration
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Output    OutputConfig    `yaml:"output"`
}

// LLMConfig configures the completion service
type LLMConfig struct {
	Provider        string        `yaml:"provider"` // "openai" or "openrouter"
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"-"` // never persisted, resolved from environment
	BaseURL         string        `yaml:"base_url,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	Temperature     float32       `yaml:"temperature"`
	ExtractTokens   int           `yaml:"extract_max_tokens"`
	ClusterTokens   int           `yaml:"cluster_max_tokens"`
	WithReasons     bool          `yaml:"with_reasons"`
	ResearchContext string        `yaml:"research_question,omitempty"`
}

// ChunkerConfig configures document splitting
type ChunkerConfig struct {
	TargetSize   int `yaml:"target_size"`
	SearchWindow int `yaml:"search_window"`
}

// RateLimitConfig bounds the request rate against the LLM service
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig configures completion response caching
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir,omitempty"` // non-empty enables the disk cache
}

// OutputConfig configures report generation
type OutputConfig struct {
	Verbose bool   `yaml:"verbose"`
	Dir     string `yaml:"dir,omitempty"` // defaults to the input file's directory
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			Timeout:       60 * time.Second,
			MaxRetries:    3,
			Temperature:   0.3,
			ExtractTokens: 1000,
			ClusterTokens: 3000,
		},
		Chunker: ChunkerConfig{
			TargetSize:   30000,
			SearchWindow: 500,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
	}
}
