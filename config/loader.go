// Package config provides unified configuration loading for ResearchMate:
// defaults, overridden by a YAML file, overridden by environment variables.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("researchmate.yaml").
//	    WithEnvPrefix("RESEARCHMATE").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete ResearchMate configuration.
type Config struct {
	// Log configures zap logging.
	Log LogConfig `yaml:"log" env:"LOG"`
	// Cache configures the redis-backed search result cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`
	// Search configures the web search provider.
	Search SearchConfig `yaml:"search" env:"SEARCH"`
	// Fetch configures the parallel page fetcher.
	Fetch FetchConfig `yaml:"fetch" env:"FETCH"`
	// Gather configures the information-gathering coordinator.
	Gather GatherConfig `yaml:"gather" env:"GATHER"`
	// Pipeline configures the research pipeline orchestration.
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`
	// Metrics configures the prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Development enables zap development mode.
	Development bool `yaml:"development" env:"DEVELOPMENT"`
}

// CacheConfig configures the redis search cache.
type CacheConfig struct {
	// Enabled toggles the cache; when false searches always hit the provider.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Addr is the redis address.
	Addr string `yaml:"addr" env:"ADDR"`
	// Password, optional.
	Password string `yaml:"password" env:"PASSWORD"`
	// DB is the redis database number.
	DB int `yaml:"db" env:"DB"`
	// DefaultTTL is how long cached search results stay fresh.
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// PoolSize is the redis connection pool size.
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// MinIdleConns keeps warm connections around.
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// SearchConfig configures the web search provider.
type SearchConfig struct {
	// BaseURL of the search API (SearxNG-compatible JSON endpoint).
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// APIKey, optional; sent as a bearer token when set.
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// MaxResults requested per query. The coordinator asks for more
	// candidates than it keeps.
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// Timeout per search request.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// RatePerMinute caps outgoing search calls.
	RatePerMinute int `yaml:"rate_per_minute" env:"RATE_PER_MINUTE"`
	// Language code for results (e.g. "en").
	Language string `yaml:"language" env:"LANGUAGE"`
	// SafeSearch toggles provider-side filtering.
	SafeSearch bool `yaml:"safe_search" env:"SAFE_SEARCH"`
}

// FetchConfig configures the parallel page fetcher.
type FetchConfig struct {
	// MaxConcurrent caps in-flight fetches per gathering call.
	MaxConcurrent int `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	// MaxRetries is the number of additional attempts per URL.
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// Timeout bounds each individual fetch attempt.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// RetryInitialDelay seeds the exponential backoff between attempts.
	RetryInitialDelay time.Duration `yaml:"retry_initial_delay" env:"RETRY_INITIAL_DELAY"`
	// RetryMaxDelay bounds the backoff.
	RetryMaxDelay time.Duration `yaml:"retry_max_delay" env:"RETRY_MAX_DELAY"`
	// RatePerSecond caps outgoing page fetches across workers.
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	// UserAgent sent with every page request.
	UserAgent string `yaml:"user_agent" env:"USER_AGENT"`
	// MaxBodyBytes bounds how much of a page body is read.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// GatherConfig configures the information-gathering coordinator.
type GatherConfig struct {
	// TargetCount is how many validated sources a gathering call keeps.
	TargetCount int `yaml:"target_count" env:"TARGET_COUNT"`
	// MaxAttempts is how many candidates are tried to reach the target.
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	// MinContentLen is the acceptance threshold for general queries.
	MinContentLen int `yaml:"min_content_len" env:"MIN_CONTENT_LEN"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	// EnableReformulation re-runs search+gather once with a broadened query
	// when the first pass yields nothing usable.
	EnableReformulation bool `yaml:"enable_reformulation" env:"ENABLE_REFORMULATION"`
}

// MetricsConfig configures the prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader loads configuration (builder pattern).
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the RESEARCHMATE env prefix.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "RESEARCHMATE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validation hook run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load resolves configuration. Precedence: defaults → YAML file → env vars.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file is fine; defaults apply.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv walks the config struct and applies PREFIX_SECTION_FIELD
// environment overrides based on env tags.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads configuration from path and panics on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	var errs []string

	if c.Gather.TargetCount <= 0 {
		errs = append(errs, "gather.target_count must be positive")
	}
	if c.Gather.MaxAttempts < c.Gather.TargetCount {
		errs = append(errs, "gather.max_attempts must be >= gather.target_count")
	}
	if c.Gather.MinContentLen < 0 {
		errs = append(errs, "gather.min_content_len must not be negative")
	}
	if c.Fetch.MaxConcurrent <= 0 {
		errs = append(errs, "fetch.max_concurrent must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, "fetch.max_retries must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "fetch.timeout must be positive")
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, "search.max_results must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
