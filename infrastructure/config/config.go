package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "kgexplorer/domain/config"
)

// Data source kinds
const (
	DataSourceHTTP   = "http"
	DataSourceMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"serverAddress"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Upstream graph API
	DataSource         string        `yaml:"dataSource"`
	GraphAPIURL        string        `yaml:"graphApiUrl"`
	GraphAPIToken      string        `yaml:"-"`
	FixturePath        string        `yaml:"fixturePath"`
	UpstreamTimeout    time.Duration `yaml:"upstreamTimeout"`
	UpstreamRateLimit  float64       `yaml:"upstreamRateLimit"` // requests per second, 0 = unlimited
	UpstreamBurst      int           `yaml:"upstreamBurst"`
	BreakerMaxFailures int           `yaml:"breakerMaxFailures"`
	BreakerOpenTimeout time.Duration `yaml:"breakerOpenTimeout"`

	// Sessions
	SessionTTL           time.Duration `yaml:"sessionTtl"`
	SessionSweepInterval time.Duration `yaml:"sessionSweepInterval"`
	DefaultExplorer      string        `yaml:"defaultExplorer"`

	// Caching (TTL in seconds, 0 disables)
	QueryCacheTTL      int `yaml:"queryCacheTtl"`
	VocabularyCacheTTL int `yaml:"vocabularyCacheTtl"`
	CacheMaxEntries    int `yaml:"cacheMaxEntries"`

	// Logging
	LogLevel string `yaml:"logLevel"`

	// Feature flags
	EnableMetrics  bool     `yaml:"enableMetrics"`
	EnableTracing  bool     `yaml:"enableTracing"`
	EnableCORS     bool     `yaml:"enableCors"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// Per-client API rate limit, requests per second (0 = unlimited)
	APIRateLimit float64 `yaml:"apiRateLimit"`
	APIRateBurst int     `yaml:"apiRateBurst"`

	// Exploration defaults layered over the environment's domain config
	Domain DomainOverrides `yaml:"domain"`

	// ConfigFile is the YAML overlay this config was read from, if any
	ConfigFile string `yaml:"-"`
}

// DomainOverrides replaces individual exploration defaults. Nil fields keep the default.
type DomainOverrides struct {
	ConceptDepth             *int     `yaml:"conceptDepth"`
	DefaultNeighborhoodDepth *int     `yaml:"defaultNeighborhoodDepth"`
	DefaultMaxHops           *int     `yaml:"defaultMaxHops"`
	MaxDepth                 *int     `yaml:"maxDepth"`
	MaxHopsLimit             *int     `yaml:"maxHopsLimit"`
	SubgraphLimit            *int     `yaml:"subgraphLimit"`
	PathEdgePlaceholder      *string  `yaml:"pathEdgePlaceholder"`
	EnrichmentConcurrency    *int     `yaml:"enrichmentConcurrency"`
	MaxHistoryEntries        *int     `yaml:"maxHistoryEntries"`
	DefaultEdgeConfidence    *float64 `yaml:"defaultEdgeConfidence"`
	FetchTimeout             *string  `yaml:"fetchTimeout"`
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		ShutdownTimeout: 15 * time.Second,

		DataSource:         DataSourceHTTP,
		GraphAPIURL:        "http://localhost:8000",
		UpstreamTimeout:    20 * time.Second,
		UpstreamRateLimit:  20,
		UpstreamBurst:      10,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,

		SessionTTL:           24 * time.Hour,
		SessionSweepInterval: 5 * time.Minute,
		DefaultExplorer:      "force-2d",

		QueryCacheTTL:      30,
		VocabularyCacheTTL: 300,
		CacheMaxEntries:    1000,

		LogLevel:       "info",
		EnableMetrics:  true,
		EnableTracing:  false,
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		APIRateLimit:   0,
		APIRateBurst:   20,
	}
}

// LoadConfig loads configuration from defaults, the YAML file named by CONFIG_FILE,
// then environment variables, each layer overriding the previous one.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile loads defaults overlaid by path, without consulting the environment
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	// Upstream graph API
	c.DataSource = getEnv("DATA_SOURCE", c.DataSource)
	c.GraphAPIURL = getEnv("GRAPH_API_URL", c.GraphAPIURL)
	c.GraphAPIToken = getEnv("GRAPH_API_TOKEN", c.GraphAPIToken)
	c.FixturePath = getEnv("FIXTURE_PATH", c.FixturePath)
	c.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout)
	c.UpstreamRateLimit = getEnvFloat("UPSTREAM_RATE_LIMIT", c.UpstreamRateLimit)
	c.UpstreamBurst = getEnvInt("UPSTREAM_BURST", c.UpstreamBurst)
	c.BreakerMaxFailures = getEnvInt("BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)

	// Sessions
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", c.SessionSweepInterval)
	c.DefaultExplorer = getEnv("DEFAULT_EXPLORER", c.DefaultExplorer)

	// Caching
	c.QueryCacheTTL = getEnvInt("QUERY_CACHE_TTL", c.QueryCacheTTL)
	c.VocabularyCacheTTL = getEnvInt("VOCABULARY_CACHE_TTL", c.VocabularyCacheTTL)
	c.CacheMaxEntries = getEnvInt("CACHE_MAX_ENTRIES", c.CacheMaxEntries)

	// Logging and features
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}
	c.APIRateLimit = getEnvFloat("API_RATE_LIMIT", c.APIRateLimit)
	c.APIRateBurst = getEnvInt("API_RATE_BURST", c.APIRateBurst)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceHTTP:
		if c.GraphAPIURL == "" {
			return fmt.Errorf("GRAPH_API_URL is required for the http data source")
		}
	case DataSourceMemory:
		if c.FixturePath == "" {
			return fmt.Errorf("FIXTURE_PATH is required for the memory data source")
		}
	default:
		return fmt.Errorf("unknown data source %q", c.DataSource)
	}

	if c.QueryCacheTTL < 0 || c.VocabularyCacheTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}
	if c.UpstreamRateLimit < 0 {
		return fmt.Errorf("UPSTREAM_RATE_LIMIT must not be negative")
	}
	if c.APIRateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	if c.APIRateLimit > 0 && c.APIRateBurst < 1 {
		return fmt.Errorf("API_RATE_BURST must be at least 1 when API_RATE_LIMIT is set")
	}

	if _, err := c.DomainConfig(); err != nil {
		return err
	}

	return nil
}

// DomainConfig builds the exploration defaults for the environment with overrides applied
func (c *Config) DomainConfig() (*domainconfig.DomainConfig, error) {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	o := c.Domain

	setInt(&dc.ConceptDepth, o.ConceptDepth)
	setInt(&dc.DefaultNeighborhoodDepth, o.DefaultNeighborhoodDepth)
	setInt(&dc.DefaultMaxHops, o.DefaultMaxHops)
	setInt(&dc.MaxDepth, o.MaxDepth)
	setInt(&dc.MaxHopsLimit, o.MaxHopsLimit)
	setInt(&dc.SubgraphLimit, o.SubgraphLimit)
	setInt(&dc.EnrichmentConcurrency, o.EnrichmentConcurrency)
	setInt(&dc.MaxHistoryEntries, o.MaxHistoryEntries)
	if o.PathEdgePlaceholder != nil {
		dc.PathEdgePlaceholder = *o.PathEdgePlaceholder
	}
	if o.DefaultEdgeConfidence != nil {
		dc.DefaultEdgeConfidence = *o.DefaultEdgeConfidence
	}
	if o.FetchTimeout != nil {
		d, err := time.ParseDuration(*o.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid domain.fetchTimeout: %w", err)
		}
		dc.FetchTimeout = d
	}
	dc.SessionTimeout = c.SessionTTL

	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
