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

package originality

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/originality/config"
	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/detect"
	"github.com/poiesic/originality/match"
	"github.com/poiesic/originality/search"
	"github.com/poiesic/originality/search/duckduckgo"
	"github.com/poiesic/originality/search/serpapi"
	"github.com/poiesic/originality/storage"
	"github.com/poiesic/originality/storage/badger"
	"github.com/poiesic/originality/storage/file"
)

// Checker wires a corpus, matcher, prover and detector from a Config.
type Checker struct {
	cfg      *config.Config
	corpus   *storage.Corpus
	matcher  *match.Matcher
	detector *detect.Detector
	logger   *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*checkerOptions)

type checkerOptions struct {
	engine     search.Engine
	httpClient *http.Client
	logger     *slog.Logger
}

// WithEngine replaces the engine named by the config.
func WithEngine(engine search.Engine) CheckerOption {
	return func(o *checkerOptions) {
		o.engine = engine
	}
}

// WithHTTPClient sets the HTTP client used by the online engines.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(o *checkerOptions) {
		o.httpClient = client
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) CheckerOption {
	return func(o *checkerOptions) {
		o.logger = logger
	}
}

// Open validates cfg, loads the corpus and builds the detector.
func Open(ctx context.Context, cfg *config.Config, opts ...CheckerOption) (*Checker, error) {
	options := &checkerOptions{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfgCopy := *cfg
	cfg = &cfgCopy
	if options.engine != nil && cfg.SearchEngine == config.EngineSerpAPI && cfg.SearchAPIKey == "" {
		// An injected engine needs no credential
		cfg.SearchEngine = config.EngineNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backing, err := OpenBacking(cfg, options.logger)
	if err != nil {
		return nil, err
	}

	corpus, err := storage.OpenCorpus(ctx, backing, storage.WithLogger(options.logger))
	if err != nil {
		backing.Close()
		return nil, err
	}

	matcher, err := match.NewMatcher(cfg.SimilarityThreshold,
		match.WithPoolSize(cfg.PoolSize),
		match.WithAutoJunk(cfg.AutoJunk),
		match.WithLogger(options.logger),
	)
	if err != nil {
		corpus.Close()
		return nil, err
	}

	detectorOpts := []detect.Option{detect.WithLogger(options.logger)}

	engine := options.engine
	if engine == nil {
		engine, err = NewEngine(cfg, options.httpClient, options.logger)
		if err != nil {
			matcher.Release()
			corpus.Close()
			return nil, err
		}
	}
	if engine != nil {
		prover, err := NewProver(cfg, engine, options.logger)
		if err != nil {
			matcher.Release()
			corpus.Close()
			return nil, err
		}
		detectorOpts = append(detectorOpts, detect.WithProver(prover))
	}

	detector, err := detect.NewDetector(corpus, matcher, detectorOpts...)
	if err != nil {
		matcher.Release()
		corpus.Close()
		return nil, err
	}

	options.logger.Info("checker ready", "config", cfg.String(), "entries", corpus.Len())
	return &Checker{
		cfg:      cfg,
		corpus:   corpus,
		matcher:  matcher,
		detector: detector,
		logger:   options.logger,
	}, nil
}

// OpenBacking opens the durable corpus backing named by cfg.
func OpenBacking(cfg *config.Config, logger *slog.Logger) (storage.Backing, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return file.Open(cfg.DBFile, file.WithLogger(logger))
	case config.BackendBadger:
		return badger.OpenBacking(cfg.DBFile, false, badger.WithLogger(logger))
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// NewEngine builds the search engine named by cfg.
// It returns nil, nil when online search is disabled.
func NewEngine(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (search.Engine, error) {
	switch cfg.SearchEngine {
	case config.EngineSerpAPI:
		return serpapi.New(cfg.SearchAPIKey, serpapi.WithHTTPClient(httpClient), serpapi.WithLogger(logger))
	case config.EngineDuckDuckGo:
		return duckduckgo.New(duckduckgo.WithHTTPClient(httpClient), duckduckgo.WithLogger(logger)), nil
	case config.EngineNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown search engine %q", config.ErrInvalidConfig, cfg.SearchEngine)
	}
}

// NewProver builds the online prover for engine using cfg's retry policy.
func NewProver(cfg *config.Config, engine search.Engine, logger *slog.Logger) (*search.Prover, error) {
	backoff := search.FixedBackoff(cfg.RetryDelay)
	if cfg.ExponentialBackoff {
		backoff = search.ExponentialBackoff(cfg.RetryDelay)
	}
	return search.NewProver(engine,
		search.WithMaxAttempts(cfg.MaxAttempts),
		search.WithBackoff(backoff),
		search.WithAttemptTimeout(cfg.AttemptTimeout),
		search.WithResultLimit(cfg.ResultLimit),
		search.WithLogger(logger),
	)
}

// Close releases the matcher pool and closes the corpus backing.
func (c *Checker) Close() error {
	c.matcher.Release()
	if err := c.corpus.Close(); err != nil {
		c.logger.Error("error closing corpus", "err", err)
		return err
	}
	return nil
}

// Check runs one submission through the detector.
func (c *Checker) Check(ctx context.Context, text string) (*core.Verdict, error) {
	return c.detector.Check(ctx, text)
}

// Detector returns the underlying detector.
func (c *Checker) Detector() *detect.Detector {
	return c.detector
}

// Corpus returns the loaded corpus.
func (c *Checker) Corpus() *storage.Corpus {
	return c.corpus
}

// Config returns the validated configuration.
func (c *Checker) Config() *config.Config {
	return c.cfg
}
