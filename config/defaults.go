package config

import "time"

// DefaultConfig returns a configuration that works out of the box for
// local development. Production deployments override via YAML or env.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			DB:           0,
			DefaultTTL:   15 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Search: SearchConfig{
			BaseURL:       "http://localhost:8888/search",
			MaxResults:    10,
			Timeout:       10 * time.Second,
			RatePerMinute: 60,
			Language:      "en",
			SafeSearch:    true,
		},
		Fetch: FetchConfig{
			MaxConcurrent:     3,
			MaxRetries:        2,
			Timeout:           10 * time.Second,
			RetryInitialDelay: 500 * time.Millisecond,
			RetryMaxDelay:     10 * time.Second,
			RatePerSecond:     5,
			UserAgent:         "ResearchMate/1.0 (+https://github.com/researchmate/researchmate)",
			MaxBodyBytes:      2 << 20, // 2 MiB
		},
		Gather: GatherConfig{
			TargetCount:   3,
			MaxAttempts:   5,
			MinContentLen: 100,
		},
		Pipeline: PipelineConfig{
			EnableReformulation: true,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Addr:      ":9090",
			Namespace: "researchmate",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "researchmate",
			SampleRate:  1.0,
		},
	}
}
