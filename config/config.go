// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backing names.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Search engine names.
const (
	EngineSerpAPI    = "serpapi"
	EngineDuckDuckGo = "duckduckgo"
	EngineNone       = "none"
)

// APIKeyEnv is the environment variable the search credential is read from.
const APIKeyEnv = "SERPAPI_API_KEY"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the checker configuration.
type Config struct {
	// SimilarityThreshold is the minimum score for a local-match verdict.
	// Default: 0.75
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// DBFile is the corpus location: a text file for the file backend,
	// a directory for badger.
	// Default: "plagiarism_db.txt"
	DBFile string `yaml:"db_file"`

	// Backend selects the corpus backing, "file" or "badger".
	Backend string `yaml:"backend"`

	// SearchEngine is "serpapi", "duckduckgo" or "none" (offline).
	SearchEngine string `yaml:"search_engine"`

	// SearchAPIKey authenticates against SerpAPI. It has no default and is
	// never logged; inject it through SERPAPI_API_KEY or ${VAR} expansion.
	SearchAPIKey string `yaml:"search_api_key"`

	// MaxAttempts is the online retry ceiling.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the wait between failed attempts.
	// Default: 2s
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ExponentialBackoff doubles RetryDelay after each failure.
	ExponentialBackoff bool `yaml:"exponential_backoff"`

	// AttemptTimeout bounds one online attempt.
	// Default: 10s
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// ResultLimit is the result-count hint sent to the engine.
	// Default: 5
	ResultLimit int `yaml:"result_limit"`

	// PoolSize is the number of local scoring workers; 1 scans sequentially.
	PoolSize int `yaml:"pool_size"`

	// AutoJunk enables the popular-character heuristic of the ratio.
	// Default: true
	AutoJunk bool `yaml:"autojunk"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithSimilarityThreshold sets the local-match threshold.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.SimilarityThreshold = threshold
	}
}

// WithDBFile sets the corpus location.
func WithDBFile(path string) ConfigOption {
	return func(c *Config) {
		c.DBFile = path
	}
}

// WithBackend sets the corpus backing.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithSearchEngine sets the online search engine.
func WithSearchEngine(engine string) ConfigOption {
	return func(c *Config) {
		c.SearchEngine = engine
	}
}

// WithSearchAPIKey sets the search credential.
func WithSearchAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.SearchAPIKey = key
	}
}

// WithMaxAttempts sets the online retry ceiling.
func WithMaxAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithRetryDelay sets the wait between failed attempts.
func WithRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = d
	}
}

// WithExponentialBackoff toggles exponential backoff.
func WithExponentialBackoff(enabled bool) ConfigOption {
	return func(c *Config) {
		c.ExponentialBackoff = enabled
	}
}

// WithAttemptTimeout sets the per-attempt bound.
func WithAttemptTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.AttemptTimeout = d
	}
}

// WithResultLimit sets the engine result-count hint.
func WithResultLimit(n int) ConfigOption {
	return func(c *Config) {
		c.ResultLimit = n
	}
}

// WithPoolSize sets the number of local scoring workers.
func WithPoolSize(n int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = n
	}
}

// WithAutoJunk toggles the ratio's popular-character heuristic.
func WithAutoJunk(enabled bool) ConfigOption {
	return func(c *Config) {
		c.AutoJunk = enabled
	}
}

// DefaultConfig returns a Config with the default values.
// The API key is taken from SERPAPI_API_KEY if set.
func DefaultConfig() *Config {
	return &Config{
		SimilarityThreshold: 0.75,
		DBFile:              "plagiarism_db.txt",
		Backend:             BackendFile,
		SearchEngine:        EngineSerpAPI,
		SearchAPIKey:        os.Getenv(APIKeyEnv),
		MaxAttempts:         3,
		RetryDelay:          2 * time.Second,
		AttemptTimeout:      10 * time.Second,
		ResultLimit:         5,
		PoolSize:            1,
		AutoJunk:            true,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a YAML file over the defaults and validates the result.
// ${VAR} and ${VAR:-default} are replaced with environment values first.
func Load(path string, opts ...ConfigOption) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize puts names in canonical form.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.SearchEngine = strings.ToLower(strings.TrimSpace(c.SearchEngine))
	c.SearchAPIKey = strings.TrimSpace(c.SearchAPIKey)
	if c.SearchEngine == "" {
		c.SearchEngine = EngineNone
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be between 0 and 1, got %v", ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.DBFile == "" {
		return fmt.Errorf("%w: db_file is required", ErrInvalidConfig)
	}
	switch c.Backend {
	case BackendFile, BackendBadger:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.SearchEngine {
	case EngineSerpAPI:
		if c.SearchAPIKey == "" {
			return fmt.Errorf("%w: search_api_key is required for serpapi (set %s)", ErrInvalidConfig, APIKeyEnv)
		}
	case EngineDuckDuckGo, EngineNone:
	default:
		return fmt.Errorf("%w: unknown search engine %q", ErrInvalidConfig, c.SearchEngine)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be greater than 0, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry_delay must not be negative", ErrInvalidConfig)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("%w: attempt_timeout must not be negative", ErrInvalidConfig)
	}
	if c.ResultLimit < 1 {
		return fmt.Errorf("%w: result_limit must be at least 1, got %d", ErrInvalidConfig, c.ResultLimit)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be at least 1, got %d", ErrInvalidConfig, c.PoolSize)
	}
	return nil
}

// Online reports whether an online engine is configured.
func (c *Config) Online() bool {
	return c.SearchEngine != EngineNone
}

// String renders the config with the API key redacted.
func (c *Config) String() string {
	key := ""
	if c.SearchAPIKey != "" {
		key = "REDACTED"
	}
	return fmt.Sprintf("threshold=%.2f db=%s backend=%s engine=%s key=%s attempts=%d delay=%v timeout=%v",
		c.SimilarityThreshold, c.DBFile, c.Backend, c.SearchEngine, key, c.MaxAttempts, c.RetryDelay, c.AttemptTimeout)
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
