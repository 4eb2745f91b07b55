package model

import "time"

// Config is the complete ifhere configuration
type Config struct {
	Content      ContentConfig      `yaml:"content" mapstructure:"content"`
	Reference    ReferenceConfig    `yaml:"reference" mapstructure:"reference"`
	Translate    TranslateConfig    `yaml:"translate" mapstructure:"translate"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Sources      SourcesConfig      `yaml:"sources" mapstructure:"sources"`
}

// ContentConfig locates story files. An empty dir uses the bundled stories.
type ContentConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ReferenceConfig locates reference data. An empty path uses the embedded dataset.
type ReferenceConfig struct {
	Path           string `yaml:"path" mapstructure:"path"`
	DefaultCountry string `yaml:"default_country" mapstructure:"default_country"`
}

// TranslateConfig holds request defaults
type TranslateConfig struct {
	Contextualize     bool   `yaml:"contextualize" mapstructure:"contextualize"`
	InlineComparisons bool   `yaml:"inline_comparisons" mapstructure:"inline_comparisons"`
	DefaultLanguage   string `yaml:"default_language" mapstructure:"default_language"`
}

// CacheConfig controls memoization of translated stories
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // empty disables the disk layer
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig paces batch jobs per destination country. Zero disables it.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendered files
type OutputConfig struct {
	Dir     string   `yaml:"dir" mapstructure:"dir"`
	Formats []string `yaml:"formats" mapstructure:"formats"` // json, md, html
	Verbose bool     `yaml:"verbose" mapstructure:"verbose"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogConfig configures slog
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// SourcesConfig controls citation checks run by `check`
type SourcesConfig struct {
	PrimaryDomains   []string      `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string      `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers          int           `yaml:"workers" mapstructure:"workers"`
	UserAgent        string        `yaml:"user_agent" mapstructure:"user_agent"`
	RespectRobots    bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy        string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy       string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Content: ContentConfig{
			Dir: "",
		},
		Reference: ReferenceConfig{
			DefaultCountry: "us",
		},
		Translate: TranslateConfig{
			Contextualize:   true,
			DefaultLanguage: "en",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         5,
		},
		Output: OutputConfig{
			Dir:     "./ifhere-out",
			Formats: []string{"json"},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Sources: SourcesConfig{
			PrimaryDomains: []string{
				"ilo.org", "who.int", "un.org", "cdc.gov", "ntsb.gov", "doi.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
				"bbc.co.uk", "bbc.com", "nytimes.com", "dhakatribune.com",
			},
			Timeout:       10 * time.Second,
			Workers:       8,
			UserAgent:     "ifhere-linkcheck/0.1",
			RespectRobots: true,
		},
	}
}
